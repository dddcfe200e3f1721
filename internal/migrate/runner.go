package migrate

import (
	"context"
	"database/sql"
	"os"

	"go.uber.org/zap"

	// Drivers selected by ParseTarget.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/toyshare/toyshare/internal/config"
	"github.com/toyshare/toyshare/internal/model"
	"github.com/toyshare/toyshare/internal/process"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

// Opener constructs a connection pool for a target.
type Opener func(Target) (Pool, error)

// OpenSQL opens a *sql.DB. database/sql connects lazily, so Run pings
// right after.
func OpenSQL(t Target) (Pool, error) {
	db, err := sql.Open(t.Driver, t.DSN)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Options select what a single run does.
type Options struct {
	// SkipGenerate applies existing files without running the generator.
	SkipGenerate bool
}

// Result describes a successful run.
type Result struct {
	Dir       string   `json:"dir" yaml:"dir"`
	Generated bool     `json:"generated" yaml:"generated"`
	Dialect   Dialect  `json:"dialect" yaml:"dialect"`
	Applied   []string `json:"applied" yaml:"applied"`
}

// Runner generates and applies migrations.
type Runner struct {
	Runtime *runtimectx.Context
	Config  *config.Config
	Exec    process.Executor

	// Open defaults to OpenSQL.
	Open Opener

	// Apply defaults to the package-level Apply.
	Apply ApplyFunc

	Logger *zap.Logger

	// Environ is the base environment for the generator; os.Environ when
	// nil.
	Environ func() []string
}

// Run ensures the migrations directory, runs the generator, then applies
// pending migrations. The generator failing stops the run before any
// database work; a missing DATABASE_URL stops it before a pool is
// constructed. Once constructed, the pool is closed exactly once before
// Run returns or panics.
func (r *Runner) Run(ctx context.Context, opts Options) (res *Result, err error) {
	logger := r.logger()
	dir := r.Runtime.Paths.Join(r.Config.MigrationsDir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitMigrationFailed, "failed to create migrations directory", err)
	}
	res = &Result{Dir: dir}

	if !opts.SkipGenerate {
		if err := r.generate(ctx, dir); err != nil {
			return nil, err
		}
		res.Generated = true
	}

	dbURL, err := r.Config.RequireDatabaseURL()
	if err != nil {
		return nil, err
	}

	target, err := ParseTarget(dbURL, r.Runtime.Paths.Root)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid "+config.EnvDatabaseURL, err)
	}
	res.Dialect = target.Dialect

	open := r.Open
	if open == nil {
		open = OpenSQL
	}
	pool, err := open(target)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitMigrationFailed, "failed to open database", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("failed to close database pool", zap.Error(cerr))
			if err == nil {
				res, err = nil, model.WrapCLIError(model.ExitMigrationFailed, "failed to close database", cerr)
			}
		}
	}()

	if err := pool.PingContext(ctx); err != nil {
		return nil, model.WrapCLIError(model.ExitMigrationFailed, "failed to connect to database", err)
	}

	apply := r.Apply
	if apply == nil {
		apply = Apply
	}
	logger.Info("applying migrations", zap.String("dir", dir), zap.Stringer("dialect", target.Dialect))
	applied, err := apply(ctx, pool, target.Dialect, dir, logger)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitMigrationFailed, "migration failed", err)
	}
	res.Applied = applied
	return res, nil
}

// generate runs the generator with the schema and output directory.
func (r *Runner) generate(ctx context.Context, dir string) error {
	cmd, err := process.FromArgv(r.Config.Tools.MigrationGenerator,
		"--dialect", r.Config.Dialect,
		"--schema", r.Config.Schema,
		"--out", dir,
	)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid migration generator command", err)
	}
	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}
	cmd.Dir = r.Runtime.Paths.Root
	cmd.Env = process.MergeEnv(environ(), nil, r.Runtime.Environ()...)

	r.logger().Info("generating migrations", zap.Stringer("command", cmd))
	if err := r.Exec.Run(ctx, cmd); err != nil {
		return model.WrapCLIError(model.ExitMigrationFailed, "migration generation failed", err)
	}
	return nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
