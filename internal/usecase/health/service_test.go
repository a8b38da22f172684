package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name     string
		index    error
		listings Pinger
		want     Status
		checks   map[string]CheckResult
	}{
		{
			name: "all healthy", listings: &mockPinger{}, want: Healthy,
			checks: map[string]CheckResult{ComponentIndex: CheckOK, ComponentListings: CheckOK},
		},
		{
			name: "listing store down", listings: &mockPinger{err: down}, want: Degraded,
			checks: map[string]CheckResult{ComponentIndex: CheckOK, ComponentListings: CheckError},
		},
		{
			name: "index down", index: down, listings: &mockPinger{}, want: Unhealthy,
			checks: map[string]CheckResult{ComponentIndex: CheckError, ComponentListings: CheckOK},
		},
		{
			name: "both down", index: down, listings: &mockPinger{err: down}, want: Unhealthy,
			checks: map[string]CheckResult{ComponentIndex: CheckError, ComponentListings: CheckError},
		},
		{
			name: "read-only", want: Healthy,
			checks: map[string]CheckResult{ComponentIndex: CheckOK},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&mockPinger{err: tc.index}, tc.listings).Check(context.Background())
			if r.Status != tc.want {
				t.Errorf("status = %q, want %q", r.Status, tc.want)
			}
			if len(r.Checks) != len(tc.checks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tc.checks)
			}
			for k, v := range tc.checks {
				if r.Checks[k] != v {
					t.Errorf("check %s = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}
