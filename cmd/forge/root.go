package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dataforge/internal/config"
	"dataforge/internal/logging"
	"dataforge/internal/perception"
	"dataforge/internal/store"
	"dataforge/internal/workflow"
)

var (
	flagConfig string
	flagDebug  bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "forge",
		Short: "Plan and execute data workflows from natural-language requests",
		Long: `forge translates a request like "process employees.csv and export a PDF report"
into an ordered task plan via a language model, executes it against the tool
set (record retrieval, CSV processing, report synthesis, export), and prints
the results.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "forge.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newProcessCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newRecordsCmd())

	return root
}

// app bundles everything a command needs after setup.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.RecordStore
	engine *workflow.Engine
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
	logging.CloseAll()
}

// setup loads config, initializes logging, and wires the engine from its
// collaborators.
func setup() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ws, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logging.Initialize(ws)

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewLocalStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	llm, err := perception.NewClientFromConfig(cfg.LLM, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	logger.Debug("forge ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("db", cfg.Store.DatabasePath))

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		engine: workflow.NewEngine(st, llm),
	}, nil
}

// setupStoreOnly opens just the record store, for commands that never talk
// to the language model.
func setupStoreOnly() (*config.Config, store.RecordStore, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.NewLocalStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open record store: %w", err)
	}
	return cfg, st, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if flagDebug || cfg.Logging.Level == "debug" {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cfg.Logging.Format != "json" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	return zcfg.Build()
}
