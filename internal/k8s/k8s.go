package k8s

import "context"

// HealthChecker provides Kubernetes connectivity checking.
type HealthChecker interface {
	CheckConnectivity(ctx context.Context) ConnectivityStatus
}

// SecretReader reads Secret data.
type SecretReader interface {
	GetSecret(ctx context.Context, namespace, name string) (map[string][]byte, error)
}
