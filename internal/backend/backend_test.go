package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/arm"
	"github.com/Azure/cosmos-explorer-sub003/internal/backend"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
)

const endpoint = "https://acct.documents.azure.com:443/"

func TestBuild_MasterKey(t *testing.T) {
	acct := account.Context{AuthMode: account.AuthMasterKey, APIType: account.APISQL, DocumentEndpoint: endpoint}

	b, err := backend.Build(context.Background(), acct, k8s.Credentials{MasterKey: "a2V5"}, backend.Options{})

	require.NoError(t, err)
	assert.NotNil(t, b.SDK)
	assert.NotNil(t, b.OfferClient())
	assert.Empty(t, b.Families.Names())
}

func TestBuild_AAD(t *testing.T) {
	acct := account.Context{
		AuthMode:         account.AuthAAD,
		APIType:          account.APIMongo,
		SubscriptionID:   "sub",
		ResourceGroup:    "rg",
		AccountName:      "acct",
		DocumentEndpoint: endpoint,
	}

	creds := k8s.Credentials{ARMToken: "token", DataPlaneToken: "data-token"}
	b, err := backend.Build(context.Background(), acct, creds, backend.Options{Retry: sdk.RetryPolicy{MaxAttempts: 1}})

	require.NoError(t, err)
	assert.Equal(t, []string{"Cassandra", "Gremlin", "Mongo", "SQL", "Tables"}, b.Families.Names())
	assert.NotNil(t, b.SDK)
}

func TestBuild_AADManagementTokenOnlyLeavesDataPlaneUnauthorized(t *testing.T) {
	acct := account.Context{
		AuthMode:         account.AuthAAD,
		APIType:          account.APISQL,
		SubscriptionID:   "sub",
		ResourceGroup:    "rg",
		AccountName:      "acct",
		DocumentEndpoint: endpoint,
	}

	_, err := backend.Build(context.Background(), acct, k8s.Credentials{ARMToken: "token"}, backend.Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, arm.ErrScopeMismatch)
}

func TestBuild_NoDocumentEndpoint(t *testing.T) {
	acct := account.Context{AuthMode: account.AuthAAD, APIType: account.APISQL, SubscriptionID: "s", ResourceGroup: "r", AccountName: "a"}

	b, err := backend.Build(context.Background(), acct, k8s.Credentials{ARMToken: "token"}, backend.Options{})

	require.NoError(t, err)
	assert.Nil(t, b.SDK)
	assert.Nil(t, b.OfferClient())
}

func TestBuild_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		acct account.Context
	}{
		{
			name: "aad without token or principal",
			acct: account.Context{AuthMode: account.AuthAAD, APIType: account.APISQL, DocumentEndpoint: endpoint},
		},
		{
			name: "master key without key",
			acct: account.Context{AuthMode: account.AuthMasterKey, APIType: account.APISQL, DocumentEndpoint: endpoint},
		},
		{
			name: "encrypted token without token service",
			acct: account.Context{AuthMode: account.AuthEncryptedToken, APIType: account.APISQL, DocumentEndpoint: endpoint},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.Build(context.Background(), tt.acct, k8s.Credentials{}, backend.Options{})
			assert.Error(t, err)
		})
	}
}
