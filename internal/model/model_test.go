package model

import "testing"

func TestDecision_IsValid(t *testing.T) {
	for _, tc := range []struct {
		decision Decision
		want     bool
	}{
		{DecisionApprove, true},
		{DecisionDeny, true},
		{Decision(""), false},
		{Decision("maybe"), false},
	} {
		if got := tc.decision.IsValid(); got != tc.want {
			t.Errorf("Decision(%q).IsValid() = %v, want %v", tc.decision, got, tc.want)
		}
	}
}

func TestSessionOrigin_IsValid(t *testing.T) {
	for _, tc := range []struct {
		origin SessionOrigin
		want   bool
	}{
		{OriginExplicitApproval, true},
		{OriginAutoTimeout, true},
		{SessionOrigin(""), false},
		{SessionOrigin("manual"), false},
	} {
		if got := tc.origin.IsValid(); got != tc.want {
			t.Errorf("SessionOrigin(%q).IsValid() = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		got  string
		want string
	}{
		{VerdictProceed.String(), "PROCEED"},
		{VerdictWaiting.String(), "WAITING"},
		{VerdictStop.String(), "STOP"},
		{DecisionApprove.String(), "approve"},
		{OriginAutoTimeout.String(), "auto-timeout"},
		{SourceFallback.String(), "fallback"},
	} {
		if tc.got != tc.want {
			t.Errorf("String() = %q, want %q", tc.got, tc.want)
		}
	}
}
