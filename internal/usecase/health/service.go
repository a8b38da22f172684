package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means search works but index synchronization does not.
	Degraded Status = "degraded"
	// Unhealthy means the index service is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentIndex    = "index"
	ComponentListings = "listings"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index    Pinger
	listings Pinger
}

// New creates a Service. listings can be nil for read-only deployments.
func New(index, listings Pinger) *Service {
	return &Service{index: index, listings: listings}
}

// Check pings every component.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentIndex: check(ctx, s.index)}
	if s.listings != nil {
		checks[ComponentListings] = check(ctx, s.listings)
	}

	status := Healthy
	switch {
	case checks[ComponentIndex] == CheckError:
		status = Unhealthy
	case checks[ComponentListings] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func check(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
