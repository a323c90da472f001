package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"statuswatch/app/internal/handlers"
)

// newServeCmd creates the serve subcommand
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the probe scheduler and the status dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := a.cfg
			h := handlers.New(handlers.Options{
				Sites:    a.sites,
				Store:    a.historyStore(),
				Events:   a.db,
				Stats:    a.statsOptions(),
				Interval: cfg.CheckInterval,
				CacheTTL: cfg.CacheTTL,
				Page: handlers.PageConfig{
					SiteName:         cfg.SiteName,
					SiteStatus:       cfg.SiteStatus,
					LogoText:         cfg.SiteLogoText,
					MonitoringPeriod: cfg.MonitoringLabel,
					StatusPageURL:    cfg.StatusPageURL,
					SEOTitle:         cfg.SEOTitle,
					SEODescription:   cfg.SEODescription,
				},
				Logger:       a.log.Logger,
				APIRateLimit: cfg.APIRateLimit,
			})
			defer h.Close()

			var wg sync.WaitGroup
			if cfg.EnableScheduler {
				r := a.runner()
				r.OnCommit = h.Invalidate
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.Run(ctx)
				}()
			} else {
				a.log.Info("scheduler disabled; expecting external check runs")
			}

			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      h.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("server starting", "port", cfg.Port, "sites", len(a.sites))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					stop()
					wg.Wait()
					return err
				}
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
			wg.Wait()
			return err
		},
	}
}
