package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/iconpark/pkg/browser"
	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/export"
	"github.com/gnana997/iconpark/pkg/parser"
	"github.com/gnana997/iconpark/pkg/raster"
	"github.com/gnana997/iconpark/pkg/snippet"
	"github.com/gnana997/iconpark/pkg/style"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCategoriesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List icon categories with their icon counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			cats := s.Categories()
			if asJSON {
				return writeJSON(a.stdout, cats)
			}

			width := 0
			for _, c := range cats {
				width = max(width, len(c.Name))
			}
			for _, c := range cats {
				fmt.Fprintf(a.stdout, "%-*s  %d\n", width, c.Name, c.Count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		category string
		limit    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search icons by title, name or tag",
		Example: `  iconpark search arrow
  iconpark search --category Office
  iconpark search "check" --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category == catalog.AllCategories {
				return fmt.Errorf("use no --category flag to search every category")
			}
			s, err := a.session()
			if err != nil {
				return err
			}
			s.SetSearch(strings.Join(args, " "))
			s.SetCategory(category)

			icons := s.Visible()
			total := len(icons)
			if limit > 0 && len(icons) > limit {
				icons = icons[:limit]
			}
			if asJSON {
				return writeJSON(a.stdout, icons)
			}
			if total == 0 {
				fmt.Fprintln(a.stdout, "No icons found.")
				return nil
			}

			width := 0
			for _, icon := range icons {
				width = max(width, len(icon.Name))
			}
			for _, icon := range icons {
				fmt.Fprintf(a.stdout, "%-*s  %s  [%s]\n", width, icon.Name, icon.Title, icon.Category)
			}
			if len(icons) < total {
				fmt.Fprintf(a.stdout, "\n%d of %d icons shown\n", len(icons), total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only icons in this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 = no limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show details of one icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, reg, err := a.loader().Load()
			if err != nil {
				return err
			}
			name := args[0]
			icon, ok := qs.GetIcon(name)
			if !ok {
				return unknownIconError(name, reg.Suggest(name, 3))
			}
			_, resolveErr := reg.Resolve(name)
			printIconHuman(a.stdout, icon, resolveErr == nil)
			return nil
		},
	}
}

func unknownIconError(name string, suggestions []string) error {
	if len(suggestions) == 0 {
		return fmt.Errorf("unknown icon %q", name)
	}
	return fmt.Errorf("unknown icon %q; did you mean: %s?", name, strings.Join(suggestions, ", "))
}

// styledSession returns a session whose style carries the flags the user set.
func (a *app) styledSession(cmd *cobra.Command, sf *styleFlags) (*browser.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	var flagErr error
	err = s.UpdateStyle(func(c *style.Config) {
		flagErr = sf.apply(cmd.Flags(), c)
	})
	if flagErr != nil {
		return nil, flagErr
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		sf        styleFlags
		format    string
		pngSize   int
		workers   int
		clipboard bool
	)
	cmd := &cobra.Command{
		Use:   "export <name>...",
		Short: "Save icons as SVG or PNG files, or copy one to the clipboard",
		Example: `  iconpark export home mail --format png --png-size 256
  iconpark export add-one --theme two-tone --stroke-color "#f00" --out ./icons
  iconpark export home --clipboard`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(format)
			if err != nil {
				return err
			}
			if kind == export.KindSnippet {
				return fmt.Errorf("use the snippet command for framework code")
			}
			if cmd.Flags().Changed("png-size") && (pngSize < raster.MinSize || pngSize > raster.MaxSize) {
				return fmt.Errorf("--png-size must be between %d and %d", raster.MinSize, raster.MaxSize)
			}

			s, err := a.styledSession(cmd, &sf)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if clipboard {
				if len(args) != 1 {
					return fmt.Errorf("--clipboard takes exactly one icon")
				}
				if err := s.Select(args[0]); err != nil {
					return err
				}
				var notice browser.Notice
				if kind == export.KindBitmap {
					notice, err = s.CopyPNG(ctx, pngSize)
				} else {
					notice, err = s.CopySVG(ctx)
				}
				if err != nil {
					return errors.New(notice.Message)
				}
				fmt.Fprintln(a.stdout, notice.Message)
				return nil
			}

			results, err := s.BatchExport(ctx, args, kind, pngSize, workers)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(a.stderr, "! %s: %v\n", r.Job.Icon.Name, r.Err)
					continue
				}
				fmt.Fprintf(a.stdout, "+ %s\n", r.Path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d exports failed", failed, len(results))
			}
			return nil
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "svg", "svg or png")
	cmd.Flags().IntVar(&pngSize, "png-size", 0, "PNG edge length in pixels (default: the style size)")
	cmd.Flags().IntVar(&workers, "workers", 0, "export workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&clipboard, "clipboard", false, "copy a single icon to the clipboard instead of saving")
	return cmd
}

func newSnippetCmd(a *app) *cobra.Command {
	var (
		sf        styleFlags
		framework string
		copyCode  bool
		verify    bool
	)
	cmd := &cobra.Command{
		Use:   "snippet <name>",
		Short: "Print React or Vue code that renders an icon",
		Example: `  iconpark snippet home
  iconpark snippet home --framework vue --theme filled --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snippet.ParseFramework(framework)
			if err != nil {
				return err
			}
			s, err := a.styledSession(cmd, &sf)
			if err != nil {
				return err
			}
			if err := s.Select(args[0]); err != nil {
				return err
			}
			icon, _ := s.Selected()

			code, err := snippet.Generate(f, icon, s.Style())
			if err != nil {
				return err
			}

			if verify {
				pm := parser.NewManager(a.logger)
				defer pm.Close()
				report, err := snippet.NewVerifier(pm).Verify(f, code)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "verified: <%s> from %q with %d props\n", report.Component, report.Package, len(report.Props))
			}

			if copyCode {
				notice, err := s.CopySnippet(cmd.Context(), f)
				if err != nil {
					return errors.New(notice.Message)
				}
				fmt.Fprintln(a.stdout, notice.Message)
				return nil
			}
			fmt.Fprint(a.stdout, code)
			if !strings.HasSuffix(code, "\n") {
				fmt.Fprintln(a.stdout)
			}
			return nil
		},
	}
	sf.register(cmd.Flags())
	cmd.Flags().StringVar(&framework, "framework", string(snippet.React), "react or vue")
	cmd.Flags().BoolVar(&copyCode, "copy", false, "copy the code to the clipboard")
	cmd.Flags().BoolVar(&verify, "verify", false, "parse the generated code and check the component usage")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "iconpark %s\n", version)
		},
	}
}
