package throughput

import (
	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Backend is the call path used for a write.
type Backend string

const (
	BackendSDK           Backend = "sdk"
	BackendManagementAPI Backend = "managementAPI"
)

// Select picks the management API for AAD sessions without the SDK override.
// Database-level offers of Tables accounts are only mutable through the SDK.
func Select(acct account.Context, kind offer.Kind) Backend {
	if acct.AuthMode != account.AuthAAD || acct.Features.UseSDKOperations {
		return BackendSDK
	}
	if acct.APIType == account.APITables && kind == offer.KindDatabase {
		return BackendSDK
	}
	return BackendManagementAPI
}
