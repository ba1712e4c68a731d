package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/transitdeck/transitdeck/internal/api/models"
	"github.com/transitdeck/transitdeck/internal/api/response"
	"github.com/transitdeck/transitdeck/internal/provider/resilience"
	"github.com/transitdeck/transitdeck/internal/transit"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	transit   *transit.Registry
	health    *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, transitRegistry *transit.Registry, health *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		transit:   transitRegistry,
		health:    health,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// ready once at least one city adapter has been registered.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.transit == nil || len(h.transit.Cities()) == 0 {
		response.ServiceUnavailable(w, r, "no transit adapters registered")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"cities": h.transit.Cities(),
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: h.subsystemStatuses(),
		Providers:  h.providerStatuses(),
	}

	for _, p := range status.Providers {
		switch p.Status {
		case models.HealthStatusFail:
			status.Status = models.HealthStatusDegraded
		case models.HealthStatusDegraded:
			if status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// subsystemStatuses reports one entry per registered city adapter.
func (h *OpsHandler) subsystemStatuses() []models.SubsystemStatus {
	if h.transit == nil {
		return []models.SubsystemStatus{}
	}

	cities := h.transit.Cities()
	out := make([]models.SubsystemStatus, 0, len(cities))
	for _, city := range cities {
		out = append(out, models.SubsystemStatus{
			Name:   "adapter-" + string(city),
			Status: models.HealthStatusOK,
		})
	}
	return out
}

// providerStatuses maps circuit breaker states onto the status vocabulary.
func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.health == nil {
		return []models.ProviderStatus{}
	}

	snapshots := h.health.GetAllHealth()
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name < snapshots[j].Name })
	out := make([]models.ProviderStatus, 0, len(snapshots))
	for _, snap := range snapshots {
		status := models.HealthStatusOK
		switch {
		case snap.IsUnhealthy():
			status = models.HealthStatusFail
		case snap.IsDegraded():
			status = models.HealthStatusDegraded
		}

		p := models.ProviderStatus{
			Provider:            snap.Name,
			Status:              status,
			ConsecutiveFailures: int(snap.Counts.ConsecutiveFailures),
		}
		if snap.LastSuccessAt != nil {
			ts := models.Timestamp(*snap.LastSuccessAt)
			p.LastSuccessAt = &ts
		}
		if snap.LastFailureAt != nil {
			ts := models.Timestamp(*snap.LastFailureAt)
			p.LastFailureAt = &ts
		}
		out = append(out, p)
	}
	return out
}
