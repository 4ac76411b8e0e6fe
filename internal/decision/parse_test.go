package decision

import (
	"testing"

	"github.com/alfredjeanlab/secretary/internal/model"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		text       string
		wantOK     bool
		wantDec    model.Decision
		wantNumber int64
	}{
		{"نعم", true, model.DecisionApprove, 0},
		{"  نعم  ", true, model.DecisionApprove, 0},
		{"لا", true, model.DecisionDeny, 0},
		{"ايوه", true, model.DecisionApprove, 0},
		{"YES", true, model.DecisionApprove, 0},
		{"Yes!", true, model.DecisionApprove, 0},
		{"ok.", true, model.DecisionApprove, 0},
		{"No", true, model.DecisionDeny, 0},
		{"nope", true, model.DecisionDeny, 0},
		{"👍", true, model.DecisionApprove, 0},
		{"❌", true, model.DecisionDeny, 0},
		{"لا ترد", true, model.DecisionDeny, 0},
		{"yes 3", true, model.DecisionApprove, 3},
		{"no #12", true, model.DecisionDeny, 12},
		{"نعم ٤", true, model.DecisionApprove, 4},
		{"yes 0", false, "", 0},
		{"yes please", false, "", 0},
		{"hello", false, "", 0},
		{"", false, "", 0},
		{"   ", false, "", 0},
		{"كيف حالك", false, "", 0},
		{"3", false, "", 0},
	} {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := Parse(tc.text)
			if ok != tc.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tc.text, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if got.Decision != tc.wantDec {
				t.Errorf("Parse(%q) decision = %q, want %q", tc.text, got.Decision, tc.wantDec)
			}
			if got.Number != tc.wantNumber {
				t.Errorf("Parse(%q) number = %d, want %d", tc.text, got.Number, tc.wantNumber)
			}
		})
	}
}
