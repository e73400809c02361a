package rest

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/dmitrijs2005/userhub/internal/server/models"
)

const pingTimeout = 2 * time.Second

type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Uptime    float64   `json:"uptime,omitempty"`
	Database  string    `json:"database,omitempty"`
}

type healthDetails struct {
	healthStatus
	Environment string            `json:"environment,omitempty"`
	Store       string            `json:"store,omitempty"`
	Memory      map[string]string `json:"memory,omitempty"`
	Runtime     map[string]any    `json:"runtime,omitempty"`
}

func (s *Server) uptime() float64 {
	return time.Since(s.started).Seconds()
}

func (s *Server) storeStatus(ctx context.Context) string {
	if s.store == nil {
		return "disconnected"
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok", Timestamp: time.Now().UTC(), Uptime: s.uptime()})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	db := s.storeStatus(r.Context())
	if db != "connected" {
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "not ready", Database: db})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{Status: "ready", Database: db})
}

// handleHealthDetailed adds runtime internals for administrators.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	resp := healthDetails{
		healthStatus: healthStatus{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Uptime:    s.uptime(),
			Database:  s.storeStatus(r.Context()),
		},
	}

	if account, ok := AccountFromContext(r.Context()); ok && account.Role == models.RoleAdmin {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		resp.Environment = s.opts.Environment
		if s.store != nil {
			resp.Store = s.store.Kind()
		}
		resp.Memory = map[string]string{
			"heapAlloc": megabytes(m.HeapAlloc),
			"heapSys":   megabytes(m.HeapSys),
			"sys":       megabytes(m.Sys),
		}
		resp.Runtime = map[string]any{
			"version":    runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func megabytes(b uint64) string {
	return fmt.Sprintf("%d MB", b/1024/1024)
}
