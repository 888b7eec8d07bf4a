// cmd/loanctl/env.go
package main

import (
	"context"
	"fmt"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/config"
	"loan-workers/internal/common/database"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/loan"
	"loan-workers/internal/notify"
	"loan-workers/internal/store/memory"
	"loan-workers/internal/workers"
	"loan-workers/internal/workflow"
)

// env is what a command needs to start instances.
type env struct {
	starter workflow.Starter
	zeebe   *workflow.ZeebeStarter
	local   *workflow.LocalStarter
	catalog *loan.Catalog
	log     logger.Logger
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

func newLogger(opts *rootOptions) logger.Logger {
	return logger.NewZapAdapter(logger.New(opts.logLevel, "console", "stderr"))
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFromFile(opts.configPath)
	}
	return config.Load()
}

func openEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	log := newLogger(opts)
	if opts.local && opts.journal == "memory" {
		return openLocal(log, workflow.NewMemoryHistory(), workflow.NewMemoryLocker())
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if opts.local {
		return openJournaled(ctx, cfg, opts.journal, log)
	}
	catalog, err := loan.LoadCatalog(cfg.Messages.CatalogPath)
	if err != nil {
		return nil, err
	}

	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		return nil, err
	}
	redis := database.NewRedis(cfg.Database.Redis)
	if err := redis.Ping(ctx); err != nil {
		zeebe.Close()
		return nil, err
	}

	starter := workflow.NewZeebeStarter(
		zeebe,
		workflow.NewRedisLocker(redis.Client),
		loan.SnapshotFromConfig(cfg.Rules),
		config.GetDuration(cfg.Workflow.InstanceLockTTL),
		config.GetDuration(cfg.Workflow.ResultTimeout),
		log,
	)
	return &env{
		starter: starter,
		zeebe:   starter,
		catalog: catalog,
		log:     log,
		closers: []func() error{zeebe.Close, redis.Close},
	}, nil
}

// openJournaled runs locally but keeps journals and instance locks in Redis,
// so an interrupted instance can be resumed by a later invocation.
func openJournaled(ctx context.Context, cfg *config.Config, journal string, log logger.Logger) (*env, error) {
	if journal != "redis" {
		return nil, fmt.Errorf("unknown journal %q (memory or redis)", journal)
	}
	redis := database.NewRedis(cfg.Database.Redis)
	if err := redis.Ping(ctx); err != nil {
		redis.Close()
		return nil, err
	}
	e, err := openLocal(log, workflow.NewRedisHistory(redis.Client), workflow.NewRedisLocker(redis.Client))
	if err != nil {
		redis.Close()
		return nil, err
	}
	e.closers = append(e.closers, redis.Close)
	return e, nil
}

// openLocal runs both processes in this process over in-memory stores.
// Only the journal and locks outlive the command, and only when they are
// not in memory.
func openLocal(log logger.Logger, history workflow.History, locker workflow.InstanceLocker) (*env, error) {
	store := memory.New()
	catalog := loan.DefaultCatalog()
	defs := workflow.Definitions()

	handlers, err := workers.Build(defs, workers.Dependencies{
		Submissions: store,
		Preferences: store,
		Notifier:    notify.NewAgentNotifier(notify.Config{}, nil, nil, log),
		Catalog:     catalog,
	}, log)
	if err != nil {
		return nil, err
	}

	runners, err := workers.Runners(defs, handlers, history, log)
	if err != nil {
		return nil, err
	}
	local := workflow.NewLocalStarter(runners, locker, history, loan.DefaultRules(), 10*time.Minute, log)
	return &env{
		starter: local,
		local:   local,
		catalog: catalog,
		log:     log,
	}, nil
}

func (e *env) requireZeebe() (*workflow.ZeebeStarter, error) {
	if e.zeebe == nil {
		return nil, fmt.Errorf("this command needs a Zeebe broker; drop --local")
	}
	return e.zeebe, nil
}

func (e *env) requireLocal() (*workflow.LocalStarter, error) {
	if e.local == nil {
		return nil, fmt.Errorf("this command runs in process; add --local")
	}
	return e.local, nil
}
