package api

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Metrics counts requests and pay-run activity for GET /metrics.
type Metrics struct {
	started time.Time

	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	totalDurationMs atomic.Uint64

	payRunsGenerated atomic.Uint64
	payslipsIssued   atomic.Uint64
	timesheetsStored atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

// Record counts one finished request.
func (m *Metrics) Record(status int, duration time.Duration) {
	m.totalRequests.Add(1)
	switch {
	case status >= 500:
		m.serverErrors.Add(1)
	case status >= 400:
		m.clientErrors.Add(1)
	}
	m.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (m *Metrics) PayRunGenerated(payslips int) {
	m.payRunsGenerated.Add(1)
	m.payslipsIssued.Add(uint64(payslips))
}

func (m *Metrics) TimesheetStored() {
	m.timesheetsStored.Add(1)
}

// Middleware records status and latency of every request it wraps.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Record(status, time.Since(start))
	})
}

// Snapshot returns the current counters plus Go runtime memory figures.
func (m *Metrics) Snapshot() map[string]any {
	total := m.totalRequests.Load()
	totalMs := m.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"uptime_seconds":    int64(time.Since(m.started).Seconds()),
		"requests_total":    total,
		"client_errors":     m.clientErrors.Load(),
		"server_errors":     m.serverErrors.Load(),
		"avg_duration_ms":   avg,
		"payruns_generated": m.payRunsGenerated.Load(),
		"payslips_issued":   m.payslipsIssued.Load(),
		"timesheets_stored": m.timesheetsStored.Load(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
			"goroutines":        runtime.NumGoroutine(),
		},
	}
}
