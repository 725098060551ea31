package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"prama/internal/deps"
	"prama/internal/logging"
	"prama/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if trimmed := strings.TrimSpace(bind); trimmed != "" {
				cfg.Server.Bind = trimmed
			}

			return ctx.withApp(true, func(a *app) error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				for _, missing := range deps.Missing(preflight.CheckSystemDeps(runCtx, cfg)) {
					logging.WarnWithContext(a.logger, "required dependency unavailable", "dependency_missing",
						logging.String("dependency", missing.Name),
						logging.String("command", missing.Command),
						logging.String(logging.FieldErrorHint, missing.Detail),
						logging.String(logging.FieldImpact, "generation requests that need it will fail"),
					)
				}

				srv, err := a.newServer()
				if err != nil {
					return err
				}
				if err := srv.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Prama listening on http://%s\n", srv.Addr())

				<-runCtx.Done()
				srv.Stop()
				a.logger.Info("server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
