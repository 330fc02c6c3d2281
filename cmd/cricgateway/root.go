package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cricwidget/gateway/internal/config"
	"github.com/cricwidget/gateway/internal/gateway"
	"github.com/cricwidget/gateway/internal/logging"
	"github.com/cricwidget/gateway/internal/metrics"
	"github.com/cricwidget/gateway/internal/server"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

// newLogger is replaced in tests to observe startup logs.
var newLogger = logging.New

// loggedError is a startup error already reported through the logger.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error { return e.error }

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var envFile string

	serve := func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		return runServe(cmd.Context(), v)
	}

	root := &cobra.Command{
		Use:           "cricgateway",
		Short:         "GraphQL gateway over CricAPI, OpenWeather and NewsAPI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	config.RegisterFlags(root.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	config.RegisterFlags(serveCmd.Flags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cricgateway", version)
		},
	}

	root.AddCommand(serveCmd, versionCmd)
	return root
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	schema, err := gateway.NewSchema(cfg,
		gateway.WithLogger(logger),
		gateway.WithMetrics(m),
		gateway.WithRequestID(server.RequestID),
		gateway.WithMaxParallelism(cfg.MaxParallelism),
	)
	if err != nil {
		logger.Error("building schema", zap.Error(err))
		return loggedError{err}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, schema, logger, m).Run(ctx); err != nil {
		logger.Error("server failed", zap.Error(err))
		return loggedError{err}
	}
	return nil
}
