package session

import (
	"testing"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestGrantWindow(t *testing.T) {
	s := New(600 * time.Second)
	s.Grant("s1", t0, model.OriginExplicitApproval)

	for _, tc := range []struct {
		name string
		at   time.Time
		want bool
	}{
		{"AtGrant", t0, true},
		{"Midway", t0.Add(300 * time.Second), true},
		{"LastInstant", t0.Add(600*time.Second - time.Millisecond), true},
		{"AtExpiry", t0.Add(600 * time.Second), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := New(600 * time.Second)
			s.Grant("s1", t0, model.OriginExplicitApproval)
			if got := s.IsTrusted("s1", tc.at); got != tc.want {
				t.Errorf("IsTrusted at %v = %v, want %v", tc.at.Sub(t0), got, tc.want)
			}
		})
	}

	if s.IsTrusted("other", t0) {
		t.Error("unknown sender should not be trusted")
	}
}

func TestExpiredEntryDroppedOnRead(t *testing.T) {
	s := New(time.Minute)
	s.Grant("s1", t0, model.OriginAutoTimeout)

	if s.IsTrusted("s1", t0.Add(2*time.Minute)) {
		t.Fatal("expired session reported trusted")
	}
	// A read at an earlier instant cannot resurrect it once dropped.
	if s.IsTrusted("s1", t0) {
		t.Fatal("expired session should have been removed")
	}
}

func TestGrantResetsWindow(t *testing.T) {
	s := New(10 * time.Minute)
	s.Grant("s1", t0, model.OriginAutoTimeout)
	regrant := t0.Add(8 * time.Minute)
	sess := s.Grant("s1", regrant, model.OriginExplicitApproval)

	if !sess.ExpiresAt.Equal(regrant.Add(10 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, regrant.Add(10*time.Minute))
	}
	got, ok := s.Get("s1", t0.Add(15*time.Minute))
	if !ok {
		t.Fatal("re-granted session should still be valid")
	}
	if got.Origin != model.OriginExplicitApproval {
		t.Errorf("Origin = %q, want overwrite to explicit-approval", got.Origin)
	}
}

func TestRevoke(t *testing.T) {
	s := New(time.Minute)
	s.Grant("s1", t0, model.OriginExplicitApproval)

	if !s.Revoke("s1") {
		t.Fatal("Revoke should report existing session")
	}
	if s.IsTrusted("s1", t0) {
		t.Fatal("revoked session still trusted")
	}
	if s.Revoke("s1") {
		t.Fatal("second Revoke should report false")
	}
}

func TestList(t *testing.T) {
	s := New(10 * time.Minute)
	s.Grant("late", t0.Add(2*time.Minute), model.OriginAutoTimeout)
	s.Grant("early", t0, model.OriginExplicitApproval)
	s.Grant("gone", t0.Add(-time.Hour), model.OriginAutoTimeout)

	got := s.List(t0.Add(time.Minute))
	if len(got) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(got))
	}
	if got[0].SenderID != "early" || got[1].SenderID != "late" {
		t.Errorf("List order = [%s %s], want [early late]", got[0].SenderID, got[1].SenderID)
	}
}

func TestDefaultDuration(t *testing.T) {
	if d := New(0).Duration(); d != DefaultDuration {
		t.Errorf("Duration() = %v, want %v", d, DefaultDuration)
	}
}
