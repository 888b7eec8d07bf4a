// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loan-workers/internal/audit"
	"loan-workers/internal/common/aws"
	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/config"
	"loan-workers/internal/common/database"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/observability"
	"loan-workers/internal/loan"
	"loan-workers/internal/notify"
	"loan-workers/internal/store/postgres"
	"loan-workers/internal/store/rediscache"
	"loan-workers/internal/workers"
	"loan-workers/internal/workflow"
	"loan-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.TraceSampleRatio)
	if err != nil {
		zapLog.Warn("otel metrics exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	submissions := postgres.New(pg.DB)
	if err := submissions.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("failed to create submission schema", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	deps := workers.Dependencies{
		Submissions: rediscache.New(submissions, redis.Client, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second, log),
		Preferences: submissions,
	}

	// --- Init Elasticsearch with retry ---
	if cfg.Audit.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		created, err := esClient.EnsureIndex(ctx, cfg.Audit.Index, audit.Mapping)
		if err != nil {
			zapLog.Fatal("audit index setup failed", zap.String("index", cfg.Audit.Index), zap.Error(err))
		}
		if created {
			zapLog.Info("audit index created", zap.String("index", cfg.Audit.Index))
		}
		deps.Audit = audit.NewIndexer(esClient.Client, cfg.Audit.Index)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Audit.Index))
	}

	// --- Init AWS notification clients ---
	agent := notify.Config{
		Enabled:   cfg.Notifications.Agent.Enabled,
		ToEmail:   cfg.Notifications.Agent.Email,
		FromEmail: cfg.Notifications.Agent.FromEmail,
		TopicARN:  cfg.Notifications.Agent.TopicARN,
	}
	if agent.Enabled {
		clients, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		deps.Notifier = notify.NewAgentNotifier(agent, clients.SES, clients.SNS, log)
		zapLog.Info("AWS notification clients initialized", zap.String("region", cfg.Notifications.AWS.Region))
	} else {
		deps.Notifier = notify.NewAgentNotifier(agent, nil, nil, log)
	}

	deps.Catalog, err = loan.LoadCatalog(cfg.Messages.CatalogPath)
	if err != nil {
		zapLog.Fatal("message catalogue load failed", zap.Error(err))
	}

	// --- Processes ---
	var defs []workflow.Definition
	for _, def := range workflow.Definitions() {
		defs = append(defs, def.WithOverrides(cfg.Workers))
	}

	reg, err := registry.LoadRegistry(cfg.Workflow.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry unavailable", zap.String("path", cfg.Workflow.RegistryPath), zap.Error(err))
	} else if problems := reg.Verify(workers.Expectations(defs)); len(problems) > 0 {
		zapLog.Warn("activity registry does not match process definitions", zap.Strings("problems", problems))
	}

	if cfg.Workflow.DeployOnStart {
		for _, def := range defs {
			if err := deploy(ctx, zeebe, def); err != nil {
				zapLog.Fatal("process deployment failed", zap.String("processId", def.ProcessID), zap.Error(err))
			}
			zapLog.Info("process deployed", zap.String("processId", def.ProcessID))
		}
	}

	// --- Workers ---
	handlers, err := workers.Build(defs, deps, log)
	if err != nil {
		zapLog.Fatal("failed to build handlers", zap.Error(err))
	}

	var running []*camunda.CamundaWorker
	for _, def := range defs {
		for _, step := range def.Steps {
			if !config.IsWorkerEnabled(cfg, step.TaskType) {
				zapLog.Info("worker disabled", zap.String("taskType", step.TaskType))
				continue
			}
			wcfg := config.GetWorkerConfig(cfg, step.TaskType)
			running = append(running, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      step.TaskType,
				Name:          cfg.App.Name,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       step.Timeout,
			}, handlers[step.TaskType], obs, log))
		}
	}
	zapLog.Info("workers registered", zap.Int("count", len(running)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		status, ready := database.Readiness(r.Context(), map[string]database.Check{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    redis.Ping,
		})
		status["time"] = time.Now().Format(time.RFC3339)
		if !ready {
			status["status"] = "not ready"
			writeStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		writeStatus(w, http.StatusOK, status)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Observability.HTTPAddress, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range running {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func deploy(ctx context.Context, zeebe *camunda.Client, def workflow.Definition) error {
	xml, err := workflow.Render(def)
	if err != nil {
		return err
	}
	_, err = zeebe.DeployResource(ctx, workflow.FileName(def), xml)
	return err
}

func writeStatus(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
