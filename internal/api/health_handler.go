package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hostcampaign/site/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the site.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPDoer is the subset of *http.Client used for probes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SessionCounter reports how many wizard sessions are live.
type SessionCounter interface {
	Len() int
}

// HealthChecker probes the Contact-MP collaborators and reports session load.
type HealthChecker struct {
	directoryURL string
	generatorURL string
	sessions     SessionCounter
	client       HTTPDoer
	startTime    time.Time
}

// NewHealthChecker creates a new HealthChecker.
// An empty URL reports "not configured" for that collaborator.
func NewHealthChecker(directoryURL, generatorURL string, sessions SessionCounter) *HealthChecker {
	return &HealthChecker{
		directoryURL: directoryURL,
		generatorURL: generatorURL,
		sessions:     sessions,
		client:       &http.Client{Timeout: 5 * time.Second},
		startTime:    time.Now(),
	}
}

const healthVersion = "1.0.0"

// Collaborators whose loss makes the wizard unusable.
var criticalChecks = []string{"directory", "generator"}

// HandleHealth returns the health status of all components.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	status := HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	}

	// Always 200; use /health/ready for probes that need HTTP 503.
	httputil.JSON(w, http.StatusOK, status)
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 200 only when both collaborators answer.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.JSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

// ---------------------------------------------------------------------------
// Individual component checks
// ---------------------------------------------------------------------------

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checks := make(map[string]ComponentCheck, 3)

	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, 2)

	go func() { ch <- result{"directory", hc.checkCollaborator(ctx, hc.directoryURL)} }()
	go func() { ch <- result{"generator", hc.checkCollaborator(ctx, hc.generatorURL)} }()

	for i := 0; i < 2; i++ {
		r := <-ch
		checks[r.name] = r.check
	}
	checks["sessions"] = hc.checkSessions()

	return checks
}

// checkCollaborator issues a GET to the base URL with a 3-second timeout.
// Any HTTP answer counts as reachable; 5xx is degraded.
func (hc *HealthChecker) checkCollaborator(ctx context.Context, baseURL string) ComponentCheck {
	if baseURL == "" {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, baseURL, nil)
	if err != nil {
		return ComponentCheck{Status: "down", Message: fmt.Sprintf("bad url: %v", err)}
	}

	start := time.Now()
	resp, err := hc.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("unreachable: %v", err),
		}
	}
	resp.Body.Close()

	status := "up"
	msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if resp.StatusCode >= 500 {
		status = "degraded"
	} else if latency > 1*time.Second {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

func (hc *HealthChecker) checkSessions() ComponentCheck {
	if hc.sessions == nil {
		return ComponentCheck{Status: "up", Message: "not configured"}
	}
	return ComponentCheck{Status: "up", Message: fmt.Sprintf("%d live sessions", hc.sessions.Len())}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// determineOverallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if a collaborator is down
//   - "degraded"  if any check is degraded
//   - "healthy"   otherwise
func determineOverallStatus(checks map[string]ComponentCheck) string {
	for _, name := range criticalChecks {
		if c, ok := checks[name]; ok && c.Status == "down" {
			return "unhealthy"
		}
	}

	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
	}

	return "healthy"
}

// formatUptime produces a human-readable uptime string like "3d 4h 12m 5s".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
