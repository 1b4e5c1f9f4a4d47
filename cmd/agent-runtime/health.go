package main

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// healthHandler answers AgentCore's /ping probe. The runtime reports Healthy
// until shutdown begins, then flips to 503 so in-flight traffic drains before
// the process exits.
type healthHandler struct {
	ready   atomic.Bool
	started time.Time
}

func newHealthHandler() *healthHandler {
	h := &healthHandler{started: time.Now()}
	h.ready.Store(true)
	return h
}

// setUnhealthy flips the probe to failing; called once shutdown starts.
func (h *healthHandler) setUnhealthy() {
	h.ready.Store(false)
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"Unhealthy"}`)
		return
	}

	uptime := time.Since(h.started).Round(time.Second)
	fmt.Fprintf(w, `{"status":"Healthy","uptime":%q}`, uptime)
}
