package throughput

import (
	"errors"

	"github.com/Azure/cosmos-explorer-sub003/internal/arm"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
)

var (
	// ErrReplacePending is returned when a previous offer replace has not completed.
	ErrReplacePending = errors.New("offer replace is still pending")

	// ErrConflictingMigration is returned when both migration directions are requested.
	ErrConflictingMigration = errors.New("cannot migrate to autoscale and manual throughput at once")

	// ErrNoThroughput is returned for a plain update without a throughput value.
	ErrNoThroughput = errors.New("update requires a manual or autoscale throughput")

	// ErrNoOffer is returned when the resource has no dedicated offer to replace.
	ErrNoOffer = errors.New("resource has no dedicated offer")

	// ErrUnsupportedAPI is returned when no management family serves the account's API type.
	ErrUnsupportedAPI = errors.New("no management family registered for API type")

	// ErrBackendUnavailable is returned when the selected backend has no client configured.
	ErrBackendUnavailable = errors.New("selected backend is not configured")

	// ErrDatabaseExists is returned by CreateDatabase when the database is already present.
	ErrDatabaseExists = errors.New("database already exists")

	// ErrCollectionExists is returned by CreateCollection when the collection is already present.
	ErrCollectionExists = errors.New("collection already exists")
)

// IsThrottled reports a throttling signal from either backend.
func IsThrottled(err error) bool {
	return arm.IsThrottled(err) || sdk.IsThrottled(err)
}

// IsNotFound reports a not-found response from either backend.
func IsNotFound(err error) bool {
	return arm.IsNotFound(err) || sdk.IsNotFound(err)
}
