package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/truegold/internal/api"
	"github.com/mtlprog/truegold/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		slog.Error("truegold failed", "error", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "truegold",
		Usage: "precious-metal spot prices, currency conversion and appraisals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "load environment variables from `FILE` before reading configuration",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading %s: %w", c.String("env-file"), err)
			}
			setupLogger(config.Load())
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			ratesCommand(),
			convertCommand(),
			marketCommand(),
			appraiseCommand(),
			exportCommand(),
		},
	}
}

// withApp loads configuration, builds the service graph and tears it down after fn.
func withApp(c *cli.Context, fn func(a *app) error) error {
	a, err := newApp(c.Context, config.Load())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and any enabled background workers",
		Action: func(c *cli.Context) error {
			return withApp(c, func(a *app) error {
				ctx, cancel := context.WithCancel(c.Context)
				defer cancel()

				a.startBackground(ctx)

				if a.cfg.AdminAPIKey == "" {
					slog.Warn("ADMIN_API_KEY not set, rate refresh endpoint is unprotected")
				}
				srv := api.NewServer(a.cfg.HTTPPort, a.handler(), a.cfg.AdminAPIKey)

				errCh := make(chan error, 1)
				go func() {
					slog.Info("HTTP server listening", "port", a.cfg.HTTPPort)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
					close(errCh)
				}()

				var serveErr error
				select {
				case <-ctx.Done():
				case serveErr = <-errCh:
				}
				slog.Info("shutting down")

				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancelShutdown()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("HTTP server shutdown error", "error", err)
				}

				slog.Info("shutdown complete")
				if serveErr != nil {
					return fmt.Errorf("HTTP server: %w", serveErr)
				}
				return nil
			})
		},
	}
}
