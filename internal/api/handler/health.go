package handler

import (
	"context"
	"net/http"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
)

// DBPinger reports whether the offer cache database is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	k8sChecker k8s.HealthChecker
	db         DBPinger
	version    string
}

// NewHealthHandler creates a new HealthHandler. checker and db may be nil when
// the server runs without a cluster or a database.
func NewHealthHandler(checker k8s.HealthChecker, db DBPinger, version string) *HealthHandler {
	return &HealthHandler{
		k8sChecker: checker,
		db:         db,
		version:    version,
	}
}

type kubernetesStatus struct {
	Connected bool    `json:"connected"`
	Version   *string `json:"version"`
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status     string           `json:"status"`
	Version    string           `json:"version"`
	Kubernetes kubernetesStatus `json:"kubernetes"`
	Database   databaseStatus   `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	data := healthData{Version: h.version}

	if h.k8sChecker != nil {
		connectivity := h.k8sChecker.CheckConnectivity(r.Context())
		data.Kubernetes.Connected = connectivity.Connected
		if connectivity.Connected {
			data.Kubernetes.Version = &connectivity.Version
		} else {
			status = "degraded"
		}
	}

	if h.db != nil {
		data.Database.Connected = h.db.Ping(r.Context()) == nil
		if !data.Database.Connected {
			status = "degraded"
		}
	}

	data.Status = status
	response.Success(w, http.StatusOK, data, requestID)
}
