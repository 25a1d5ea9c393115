// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

type StatsSource interface {
	Stats(ctx context.Context) (map[string]any, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	storage     StatsSource
	storagePing Pinger
	gateway     Pinger
	policy      GuardPolicy
	started     time.Time
}

type HandlerConfig struct {
	Storage     StatsSource
	StoragePing Pinger
	Gateway     Pinger
	Policy      GuardPolicy
}

// GuardPolicy reports how the approval gate is configured so operators
// can see whether an outage lets restaurants through.
type GuardPolicy struct {
	ApprovalOnError   string   `json:"approval_on_error"`
	ApprovalOnMissing string   `json:"approval_on_missing"`
	UnguardedPrefixes []string `json:"unguarded_prefixes"`
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		storage:     cfg.Storage,
		storagePing: cfg.StoragePing,
		gateway:     cfg.Gateway,
		policy:      cfg.Policy,
		started:     time.Now(),
	}
}

// RegisterRoutes mounts under a router already gated to ADMIN.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sistema", h.GetSystemStats)
	r.Get("/sistema/runtime", h.GetRuntimeStats)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := SystemStatsResponse{
		Storage: StorageStatus{
			Healthy: ping(ctx, h.storagePing),
		},
		Gateway: GatewayStatus{
			Healthy: ping(ctx, h.gateway),
		},
		Guard:   h.policy,
		Runtime: h.runtimeStats(),
	}

	if h.storage != nil {
		stats, err := h.storage.Stats(ctx)
		if err != nil {
			response.Storage.Error = err.Error()
		} else {
			response.Storage.Stats = stats
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.runtimeStats())
}

func (h *Handler) runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
	}
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	return p.Ping(ctx) == nil
}

type SystemStatsResponse struct {
	Storage StorageStatus `json:"storage"`
	Gateway GatewayStatus `json:"gateway"`
	Guard   GuardPolicy   `json:"guard"`
	Runtime RuntimeStats  `json:"runtime"`
}

type StorageStatus struct {
	Healthy bool           `json:"healthy"`
	Stats   map[string]any `json:"stats,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type GatewayStatus struct {
	Healthy bool `json:"healthy"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	Uptime       string `json:"uptime"`
}
