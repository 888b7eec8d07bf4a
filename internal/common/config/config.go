// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Workflow      WorkflowConfig          `mapstructure:"workflow"`
	Rules         RulesConfig             `mapstructure:"rules"`
	Messages      MessagesConfig          `mapstructure:"messages"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Audit         AuditConfig             `mapstructure:"audit"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, latest-submission cache
}

// WorkerConfig holds the core settings applicable to every worker.
// Timeout and MaxRetries override the activity's built-in policy when set.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // total attempts
}

// --- Loan Workflow Configuration ---

// WorkflowConfig controls instance start and result retrieval.
type WorkflowConfig struct {
	DeployOnStart   bool   `mapstructure:"deploy_on_start"`
	ResultTimeout   int    `mapstructure:"result_timeout"`    // milliseconds
	InstanceLockTTL int    `mapstructure:"instance_lock_ttl"` // milliseconds
	RegistryPath    string `mapstructure:"registry_path"`
}

// RulesConfig holds the decision thresholds and the duplicate cooldown window.
type RulesConfig struct {
	MinCreditScore          int           `mapstructure:"min_credit_score"`
	ApprovalCreditScore     int           `mapstructure:"approval_credit_score"`
	ComfortableLoanToIncome float64       `mapstructure:"comfortable_loan_to_income"`
	MaxLoanToIncome         float64       `mapstructure:"max_loan_to_income"`
	CooldownWindow          time.Duration `mapstructure:"cooldown_window"`
}

// MessagesConfig locates the user-facing message catalogue. An empty path
// selects the catalogue compiled into the binary.
type MessagesConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// NotificationConfig holds settings for the notify-loan-agent worker.
type NotificationConfig struct {
	Agent struct {
		Enabled   bool   `mapstructure:"enabled"`
		Email     string `mapstructure:"email"`
		FromEmail string `mapstructure:"from_email"`
		TopicARN  string `mapstructure:"topic_arn"`
	} `mapstructure:"agent"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// AuditConfig controls the Elasticsearch decision index.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds the metrics endpoint and tracing settings.
type ObservabilityConfig struct {
	ServiceName      string  `mapstructure:"service_name"`
	HTTPAddress      string  `mapstructure:"http_address"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
}
