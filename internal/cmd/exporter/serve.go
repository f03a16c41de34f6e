package exporter

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitrina/feedsmith/internal/config"
)

const defaultCronSpec = "0 3 * * *"

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the export daemon: the trigger/status API plus the daily scheduled export",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := config.NewFeedsmithFromFile(configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(c.Global.Logger.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("feedsmith.serve")
			l.Info("starting exporter!")

			db, err := sql.Open("pgx", c.Exporter.Source.ConnectionString)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.PingContext(ctx); err != nil {
				return err
			}

			trigger, err := config.InitializeTrigger(c, db, logger.Named("feedsmith"))
			if err != nil {
				return err
			}

			spec := c.Exporter.Schedule.Cron
			if spec == "" {
				spec = defaultCronSpec
			}

			cr := cron.New()
			if _, err := cr.AddFunc(spec, func() {
				if err := trigger.Scheduled(ctx); err != nil {
					// Process supervision owns restart and alerting.
					l.Error("scheduled export failed", zap.Error(err))
					logger.Sync()
					os.Exit(1)
				}
			}); err != nil {
				return err
			}
			cr.Start()
			defer cr.Stop()
			l.Info("scheduled export registered", zap.String("cron", spec))

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			r.Use(logMiddleware(logger))
			trigger.RegisterRoutes(r)

			addr := viper.GetString("addr")
			if addr == "" {
				addr = c.Exporter.HTTP.Addr
			}
			if addr == "" {
				addr = ":8080"
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: r,
			}

			go func() {
				<-ctx.Done()
				l.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			l.Info("starting server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			// Let a background manual run write its terminal status.
			trigger.Wait()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	cmd.Flags().String("addr", "", "Listen address, overrides the config file")
	viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	viper.SetEnvPrefix("FEEDSMITH")
	viper.AutomaticEnv()

	return cmd
}

func logMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request",
					zap.String("from", r.RemoteAddr),
					zap.String("protocol", r.Proto),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
