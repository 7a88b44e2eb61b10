package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	apperrors "github.com/vyxlo/platform/pkg/errors"
	"github.com/vyxlo/platform/pkg/httputil"
)

// Checker is a function that checks the health of a dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

const checkTimeout = 5 * time.Second

// Report is the body of the liveness and readiness probes.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Summary is the payload of the public status endpoint.
type Summary struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler serves health endpoints backed by named dependency checkers.
type Handler struct {
	version string
	now     func() time.Time

	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewHandler creates a health handler reporting the given build version.
func NewHandler(version string) *Handler {
	return &Handler{
		version:  version,
		now:      time.Now,
		checkers: make(map[string]Checker),
	}
}

// Register adds a named health checker.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Check runs every registered checker and reports each result.
func (h *Handler) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	report := Report{Status: StatusUp, Timestamp: h.now().UTC(), Checks: make(map[string]CheckResult, len(names))}
	for _, name := range names {
		h.mu.RLock()
		checker := h.checkers[name]
		h.mu.RUnlock()

		if err := checker(ctx); err != nil {
			report.Checks[name] = CheckResult{Status: StatusDown, Error: err.Error()}
			report.Status = StatusDown
			continue
		}
		report.Checks[name] = CheckResult{Status: StatusUp}
	}
	return report
}

// Liveness always answers 200 while the process is serving.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, Report{Status: StatusUp, Timestamp: h.now().UTC()})
}

// Readiness answers 200 when every checker passes and 503 otherwise.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	report := h.Check(r.Context())
	status := http.StatusOK
	if report.Status == StatusDown {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}

// Status answers with the service version inside the standard envelope once
// every checker passes. A failing dependency yields internal_error without
// exposing which one failed.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	report := h.Check(r.Context())
	if report.Status == StatusDown {
		httputil.WriteFailure(w, http.StatusInternalServerError, apperrors.CodeInternal, "service unavailable")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, Summary{
		Status:    "ok",
		Version:   h.version,
		Timestamp: report.Timestamp,
	})
}
