package exporter

import (
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitrina/feedsmith/internal/config"
)

func newInvokeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Runs a single export cycle and exits. Exits non-zero on failure so a supervisor can alert.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := config.NewFeedsmithFromFile(configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(c.Global.Logger.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("feedsmith.invoke")
			l.Info("starting export run!")

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

			if err := trigger.Scheduled(ctx); err != nil {
				l.Error("export run failed", zap.Error(err))
				return err
			}

			l.Info("export run completed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
