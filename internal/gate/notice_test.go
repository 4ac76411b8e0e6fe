package gate

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alfredjeanlab/secretary/internal/identity"
	"github.com/alfredjeanlab/secretary/internal/model"
)

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("ب", 250)
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "hi", 200, "hi"},
		{"collapses whitespace", "  a \n\t b  ", 200, "a b"},
		{"no limit", "abc", 0, "abc"},
		{"truncates runes", long, 200, strings.Repeat("ب", 200) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Excerpt(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("Excerpt = %q (%d runes), want %q", got, utf8.RuneCountInString(got), tt.want)
			}
		})
	}
}

func TestFormatNotice(t *testing.T) {
	req := model.PendingRequest{Number: 7, Excerpt: "ping"}

	known := FormatNotice(req, identity.Resolution{Name: "Mom", Known: true}, 35*time.Second)
	for _, want := range []string{"#7", "Mom", "saved contact (Mom)", `"ping"`, "yes 7", "no 7", "35 seconds"} {
		if !strings.Contains(known, want) {
			t.Errorf("known notice missing %q:\n%s", want, known)
		}
	}

	stranger := FormatNotice(model.PendingRequest{Number: 1}, identity.Resolution{Name: identity.UnknownName}, 2*time.Minute)
	if !strings.Contains(stranger, "unknown number") || !strings.Contains(stranger, "2 minutes") {
		t.Errorf("stranger notice:\n%s", stranger)
	}
	if strings.Contains(stranger, "Message:") {
		t.Error("empty excerpt should be omitted")
	}
}
