package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnana997/iconpark/pkg/mcp"
	"github.com/gnana997/iconpark/pkg/mcplog"
	"github.com/gnana997/iconpark/pkg/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		watchFiles bool
		mcpLog     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `serve answers MCP tool calls (list_categories, search_icons, get_icon,
get_svg, get_png, get_snippet) on stdin/stdout. With --watch the catalog
and icon sources are reloaded when they change on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("watch") {
				a.cfg.Watch = watchFiles
			}
			if cmd.Flags().Changed("mcp-log") {
				a.cfg.MCPLog = mcpLog
			}
			return a.serve()
		},
	}
	cmd.Flags().BoolVar(&watchFiles, "watch", false, "reload icons when the catalog or sources change")
	cmd.Flags().StringVar(&mcpLog, "mcp-log", "", "append one JSON line per tool call to this file")
	return cmd
}

func (a *app) serve() error {
	loader := a.loader()
	qs, reg, err := loader.Load()
	if err != nil {
		return err
	}
	if missing := reg.Check(qs.Catalog); len(missing) > 0 {
		a.logger.Warn("catalog icons without a source", "count", len(missing))
	}

	callLog, err := mcplog.Open(a.cfg.MCPLog)
	if err != nil {
		return fmt.Errorf("open mcp log: %w", err)
	}
	defer callLog.Close()

	srv := mcp.NewServer(qs, reg, mcp.Options{
		Style:   a.cfg.Style,
		CallLog: callLog,
		Logger:  a.logger,
	})

	if a.cfg.Watch {
		paths := loader.Paths()
		if len(paths) == 0 {
			a.logger.Warn("nothing to watch: serving the bundled icons")
		} else {
			w, err := watch.New(watch.Reloader(loader, a.logger, srv), watch.DefaultOptions(), a.logger)
			if err != nil {
				return err
			}
			for _, p := range paths {
				if err := w.Add(p); err != nil {
					w.Stop()
					return err
				}
			}
			w.Start()
			defer w.Stop()
		}
	}

	a.logger.Info("mcp server starting", "icons", qs.Len(), "sources", reg.Len())
	return srv.ServeStdio()
}
