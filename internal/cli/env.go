package cli

import (
	"os"

	"go.uber.org/zap"

	"github.com/toyshare/toyshare/internal/config"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/paths"
	"github.com/toyshare/toyshare/internal/process"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

// environment is what every command needs before doing real work.
type environment struct {
	Runtime *runtimectx.Context
	Config  *config.Config
	Exec    process.Executor
	Logger  *zap.Logger
}

// loadEnvironment locates the project, loads configuration and builds
// the runtime context. mode overrides NODE_ENV when non-empty.
func loadEnvironment(mode model.Mode) (*environment, error) {
	explicit := rootDir
	if explicit == "" {
		explicit = os.Getenv(config.EnvRoot)
	}

	origin, err := paths.Locate(explicit, SourceFile)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot locate project root", err)
	}
	bundle := origin.Bundle()
	logger.Debug("located project",
		zap.String("root", bundle.Root),
		zap.Stringer("invocation", origin.Invocation))

	cfg, err := config.Load(config.LoadOptions{Root: bundle.Root, ConfigFile: configFile})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	if cfg.File != "" {
		logger.Debug("loaded config file", zap.String("file", cfg.File))
	}
	mode = cfg.ResolveMode(mode, logger)

	rt, err := runtimectx.Init(runtimectx.Options{Origin: origin, Mode: mode, Logger: logger})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot initialize runtime context", err)
	}

	return &environment{
		Runtime: rt,
		Config:  cfg,
		Exec:    process.NewLocal(logger),
		Logger:  logger,
	}, nil
}
