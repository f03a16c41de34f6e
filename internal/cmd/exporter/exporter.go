package exporter

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "exporter",
		Short: "Manages catalog exports",
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInvokeCommand())
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
