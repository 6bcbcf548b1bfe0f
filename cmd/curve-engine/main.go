// ====================================
// File: cmd/curve-engine/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yoinknow/curve-engine/internal/config"
	"github.com/yoinknow/curve-engine/internal/runner"
	"github.com/yoinknow/curve-engine/internal/utils/logger"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	scenarioPath := pflag.StringP("scenario", "s", "", "scenario file to replay after bootstrap")
	addr := pflag.String("addr", "", "API listen address (overrides server.addr)")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *scenarioPath != "" {
		cfg.Scenario = *scenarioPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.LogFile = cfg.Log.File
	logCfg.Development = cfg.Log.Development
	logCfg.BufferSize = cfg.Log.BufferSize
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("🚀 Starting curve engine",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("records", cfg.Records.Driver))

	var opts []runner.Option
	if buf := log.Buffer(); buf != nil {
		opts = append(opts, runner.WithLogSource(buf))
	}
	r, err := runner.New(cfg, log.Logger, opts...)
	if err != nil {
		log.Fatal("Failed to initialize engine", zap.Error(err))
	}

	runErr := r.Run(context.Background())
	if err := r.Close(); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	if runErr != nil {
		log.Error("Engine execution error", zap.Error(runErr))
		_ = log.Sync()
		os.Exit(1)
	}
}
