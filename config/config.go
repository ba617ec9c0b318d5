package config

import (
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12333"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type CRMDatabaseConfig struct {
	Host            string `env:"CRM_POSTGRES_HOST,required"`
	Port            string `env:"CRM_POSTGRES_PORT,required"`
	User            string `env:"CRM_POSTGRES_USER,required"`
	DBName          string `env:"CRM_POSTGRES_DB_NAME,required"`
	Password        string `env:"CRM_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"CRM_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"CRM_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"CRM_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"CRM_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"CRM_POSTGRES_SSL_MODE" envDefault:"disable"`
}

// GraphConfig holds the client-credential identity for the mail provider.
type GraphConfig struct {
	TenantID     string `env:"GRAPH_TENANT_ID"`
	ClientID     string `env:"GRAPH_CLIENT_ID"`
	ClientSecret string `env:"GRAPH_CLIENT_SECRET"`
	Authority    string `env:"GRAPH_AUTHORITY" envDefault:"https://login.microsoftonline.com"`
	BaseURL      string `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
}

type SyncConfig struct {
	// Mailboxes is the comma-separated explicit mailbox list. When empty the
	// active-user directory is queried instead.
	Mailboxes []string `env:"SYNC_MAILBOXES" envSeparator:","`
	// OrgDomain is the organization's mail domain, used for the relevance
	// filter, direction derivation and directory filtering.
	OrgDomain    string `env:"SYNC_ORG_DOMAIN"`
	LookbackDays int    `env:"SYNC_LOOKBACK_DAYS" envDefault:"7"`
	MaxPerFolder int    `env:"SYNC_MAX_PER_FOLDER" envDefault:"100"`
}

type R2StorageConfig struct {
	AccountID             string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID           string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret       string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	EmailAttachmentBucket string `env:"BUCKET_NAME_EMAIL_ATTACHMENT" envDefault:"attachments"`
}
