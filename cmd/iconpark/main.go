package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gnana997/iconpark/pkg/browser"
	"github.com/gnana997/iconpark/pkg/export"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
	"github.com/gnana997/iconpark/pkg/util"
	"github.com/gnana997/iconpark/pkg/watch"
)

const version = "0.1.0-dev"

// Replaceable for testing.
var newClipboard = func(logger *slog.Logger) export.Clipboard {
	return export.NewSystemClipboard(logger)
}

// app carries the resolved configuration shared by every subcommand.
type app struct {
	configPath string
	cfg        ProjectConfig
	logger     *slog.Logger
	fileCache  util.FileCache

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "iconpark",
		Short:         "Browse, style and export IconPark icons",
		Long:          "iconpark searches the icon catalog, renders icons with a custom style, exports SVG/PNG files, generates React and Vue snippets, and serves the same features to AI agents over MCP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.fileCache != nil {
				a.fileCache.Close()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", defaultConfigPath, "project config file")
	pf.String("catalog", "", "catalog JSON file (default: bundled catalog)")
	pf.String("icons", "", "directory of SVG icon sources (default: bundled icons)")
	pf.String("out", "", "output directory for exported files")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")

	root.AddCommand(
		newCategoriesCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newExportCmd(a),
		newSnippetCmd(a),
		newServeCmd(a),
		newSetupCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	explicit := cmd.Flags().Changed("config")
	cfg, err := loadProjectConfig(a.configPath, explicit)
	if err != nil {
		return err
	}
	applyFlags(&cfg, cmd.Flags())
	a.cfg = cfg

	a.logger = util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.LogLevel),
		Format: util.ParseLogFormat(cfg.LogFormat),
		Output: a.stderr,
	})
	slog.SetDefault(a.logger)
	a.fileCache = util.NewFileCache(&util.FileCacheConfig{MaxFiles: 8192, Logger: a.logger})
	return nil
}

func (a *app) loader() *watch.Loader {
	opts := registry.DefaultOptions()
	opts.Logger = a.logger
	return &watch.Loader{
		CatalogPath: a.cfg.CatalogPath,
		IconsDir:    a.cfg.IconsDir,
		Registry:    opts,
		FileCache:   a.fileCache,
	}
}

// session loads the icon sources and returns a session using the
// configured default style.
func (a *app) session() (*browser.Session, error) {
	qs, reg, err := a.loader().Load()
	if err != nil {
		return nil, err
	}
	s, err := browser.New(browser.Options{
		Catalog:    qs,
		Registry:   reg,
		Dispatcher: export.NewDispatcher(newClipboard(a.logger), export.NewSaver(a.cfg.OutputDir, a.logger), a.logger),
		Logger:     a.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := s.UpdateStyle(func(c *style.Config) { *c = a.cfg.Style }); err != nil {
		return nil, fmt.Errorf("config style: %w", err)
	}
	return s, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
