// Package backend builds the management-plane families and the data-plane
// client for one account from its credentials.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/arm"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// Options holds the endpoint and retry settings shared by the server and the CLI.
type Options struct {
	ARMEndpoint          string
	ARMAPIVersion        string
	ARMPollInterval      time.Duration
	ARMMaxPolls          int
	TokenServiceEndpoint string
	Retry                sdk.RetryPolicy
}

// Backends are the two call paths of an account.
type Backends struct {
	Families *throughput.Registry
	SDK      *sdk.Client
}

// Build wires both call paths. The management plane is only set up for AAD
// sessions, the only ones the selector routes to it.
func Build(ctx context.Context, acct account.Context, creds k8s.Credentials, opts Options) (*Backends, error) {
	b := &Backends{Families: throughput.NewRegistry()}

	armCreds := arm.Credentials{
		TenantID:       creds.TenantID,
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		StaticToken:    creds.ARMToken,
		DataPlaneToken: creds.DataPlaneToken,
	}

	sdkCreds := sdk.Credentials{
		MasterKey:            creds.MasterKey,
		ResourceToken:        creds.ResourceToken,
		TokenServiceEndpoint: opts.TokenServiceEndpoint,
		EncryptedToken:       creds.EncryptedToken,
	}

	if acct.AuthMode == account.AuthAAD {
		ts, err := armCreds.TokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("management credentials: %w", err)
		}
		client := arm.NewClient(ctx, opts.ARMEndpoint, opts.ARMAPIVersion, ts, arm.WithPolling(opts.ARMPollInterval, opts.ARMMaxPolls))
		for api, f := range arm.NewFamilies(client) {
			b.Families.Register(api, f)
		}
		slog.Info("management plane configured", "endpoint", client.Endpoint(), "families", b.Families.Names())

		if acct.DocumentEndpoint != "" {
			sdkCreds.AAD, err = armCreds.ScopedTokenSource(ctx, arm.DataPlaneScope(acct.DocumentEndpoint))
			if err != nil {
				return nil, fmt.Errorf("data-plane credentials: %w", err)
			}
		}
	}

	if acct.DocumentEndpoint == "" {
		slog.Warn("account has no document endpoint; data-plane operations are unavailable", "account", acct.AccountName)
		return b, nil
	}

	tokens, err := sdk.NewTokenProvider(acct, sdkCreds)
	if err != nil {
		return nil, fmt.Errorf("data-plane credentials: %w", err)
	}
	b.SDK = sdk.NewClient(acct.DocumentEndpoint, tokens, opts.Retry, nil)
	return b, nil
}

// OfferClient returns the data-plane client as the orchestrator's interface,
// nil when no client was built.
func (b *Backends) OfferClient() throughput.OfferClient {
	if b.SDK == nil {
		return nil
	}
	return b.SDK
}
