package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             int    `envconfig:"PORT" default:"8080"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"0"`
	KubeconfigPath   string `envconfig:"KUBECONFIG_PATH" default:""`
	Namespace        string `envconfig:"NAMESPACE" default:"default"`
	Version          string `envconfig:"VERSION" default:"dev"`
	BcryptCost       int    `envconfig:"BCRYPT_COST" default:"12"`

	// CredentialsSecret names a Secret in Namespace whose keys override the
	// credential variables below. Empty disables the lookup.
	CredentialsSecret string `envconfig:"CREDENTIALS_SECRET" default:""`
	AccountConfigPath string `envconfig:"ACCOUNT_CONFIG_PATH" required:"true"`

	ARMEndpoint     string        `envconfig:"ARM_ENDPOINT" default:"https://management.azure.com"`
	ARMAPIVersion   string        `envconfig:"ARM_API_VERSION" default:"2020-04-01"`
	ARMPollInterval time.Duration `envconfig:"ARM_POLL_INTERVAL" default:"1s"`
	ARMMaxPolls     int           `envconfig:"ARM_MAX_POLLS" default:"10"`
	AADTenantID     string        `envconfig:"AAD_TENANT_ID" default:""`
	AADClientID     string        `envconfig:"AAD_CLIENT_ID" default:""`
	AADClientSecret string        `envconfig:"AAD_CLIENT_SECRET" default:""`
	ARMToken        string        `envconfig:"ARM_TOKEN" default:""`
	DataPlaneToken  string        `envconfig:"DATA_PLANE_TOKEN" default:""`

	MasterKey            string `envconfig:"COSMOS_MASTER_KEY" default:""`
	ResourceToken        string `envconfig:"COSMOS_RESOURCE_TOKEN" default:""`
	EncryptedToken       string `envconfig:"COSMOS_ENCRYPTED_TOKEN" default:""`
	TokenServiceEndpoint string `envconfig:"TOKEN_SERVICE_ENDPOINT" default:""`
	SDKRetryAttempts     int    `envconfig:"SDK_RETRY_ATTEMPTS" default:"9"`
	SDKRetryIntervalMs   int    `envconfig:"SDK_RETRY_INTERVAL_MS" default:"0"`

	ReconcilerInterval    int           `envconfig:"RECONCILER_INTERVAL" default:"10"`
	ReconcilerConcurrency int           `envconfig:"RECONCILER_CONCURRENCY" default:"4"`
	SessionTTL            time.Duration `envconfig:"SESSION_TTL" default:"30m"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
