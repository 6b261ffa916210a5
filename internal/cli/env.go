package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/backend"
	"github.com/Azure/cosmos-explorer-sub003/internal/console"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// Env is the subset of the server configuration the CLI reads: endpoints and
// credentials only, no database or cluster.
type Env struct {
	ARMEndpoint          string        `envconfig:"ARM_ENDPOINT" default:"https://management.azure.com"`
	ARMAPIVersion        string        `envconfig:"ARM_API_VERSION" default:"2020-04-01"`
	ARMPollInterval      time.Duration `envconfig:"ARM_POLL_INTERVAL" default:"1s"`
	ARMMaxPolls          int           `envconfig:"ARM_MAX_POLLS" default:"10"`
	AADTenantID          string        `envconfig:"AAD_TENANT_ID"`
	AADClientID          string        `envconfig:"AAD_CLIENT_ID"`
	AADClientSecret      string        `envconfig:"AAD_CLIENT_SECRET"`
	ARMToken             string        `envconfig:"ARM_TOKEN"`
	DataPlaneToken       string        `envconfig:"DATA_PLANE_TOKEN"`
	MasterKey            string        `envconfig:"COSMOS_MASTER_KEY"`
	ResourceToken        string        `envconfig:"COSMOS_RESOURCE_TOKEN"`
	EncryptedToken       string        `envconfig:"COSMOS_ENCRYPTED_TOKEN"`
	TokenServiceEndpoint string        `envconfig:"TOKEN_SERVICE_ENDPOINT"`
	SDKRetryAttempts     int           `envconfig:"SDK_RETRY_ATTEMPTS" default:"9"`
	SDKRetryIntervalMs   int           `envconfig:"SDK_RETRY_INTERVAL_MS" default:"0"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}
	return &env, nil
}

type localEngine struct {
	*throughput.Orchestrator
	*throughput.Creator
}

// EnvEngineFactory builds engines from environment credentials. Console
// notifications go to the default slog logger and a short in-memory log.
func EnvEngineFactory(env *Env) EngineFactory {
	return func(ctx context.Context, acct account.Context) (Engine, error) {
		backends, err := backend.Build(ctx, acct, k8s.Credentials{
			TenantID:       env.AADTenantID,
			ClientID:       env.AADClientID,
			ClientSecret:   env.AADClientSecret,
			ARMToken:       env.ARMToken,
			DataPlaneToken: env.DataPlaneToken,
			MasterKey:      env.MasterKey,
			ResourceToken:  env.ResourceToken,
			EncryptedToken: env.EncryptedToken,
		}, backend.Options{
			ARMEndpoint:          env.ARMEndpoint,
			ARMAPIVersion:        env.ARMAPIVersion,
			ARMPollInterval:      env.ARMPollInterval,
			ARMMaxPolls:          env.ARMMaxPolls,
			TokenServiceEndpoint: env.TokenServiceEndpoint,
			Retry: sdk.RetryPolicy{
				MaxAttempts: env.SDKRetryAttempts,
				Interval:    time.Duration(env.SDKRetryIntervalMs) * time.Millisecond,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("building backends for %s: %w", acct.AccountName, err)
		}

		con := console.New(console.NewMemoryRepository(64), nil)
		return &localEngine{
			Orchestrator: throughput.NewOrchestrator(backends.Families, backends.OfferClient(), con, nil, nil),
			Creator:      throughput.NewCreator(backends.Families, backends.OfferClient(), con),
		}, nil
	}
}
