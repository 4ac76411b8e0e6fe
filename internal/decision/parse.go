// Package decision turns the approver's free-text replies into approve or
// deny decisions.
//
// Matching is against fixed token tables: Arabic (MSA, Gulf and Yemeni
// spellings), English, and a few emoji. A reply may carry a prompt number
// after the token ("yes 3", "no #2") to target a specific notice.
package decision

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/alfredjeanlab/secretary/internal/model"
)

var affirmative = map[string]bool{
	"نعم":     true,
	"ايوه":    true,
	"أيوه":    true,
	"ايوا":    true,
	"اي":      true,
	"إي":      true,
	"ايه":     true,
	"أكيد":    true,
	"اكيد":    true,
	"موافق":   true,
	"تمام":    true,
	"اوكي":    true,
	"yes":     true,
	"y":       true,
	"yeah":    true,
	"yep":     true,
	"ok":      true,
	"okay":    true,
	"sure":    true,
	"approve": true,
	"allow":   true,
	"👍":       true,
	"✅":       true,
}

var negative = map[string]bool{
	"لا":     true,
	"لأ":     true,
	"لاء":    true,
	"كلا":    true,
	"مو":     true,
	"لا ترد": true,
	"no":     true,
	"n":      true,
	"nope":   true,
	"nah":    true,
	"deny":   true,
	"reject": true,
	"stop":   true,
	"👎":      true,
	"❌":      true,
}

// Reply is a parsed approver decision.
type Reply struct {
	Decision model.Decision
	// Number is the prompt number the reply targets, or 0 for "the most
	// recent request".
	Number int64
}

// Parse reports whether text is a decision and, if so, which one.
// Unrecognized text returns false and must be treated as ordinary input.
func Parse(text string) (Reply, bool) {
	s := strings.ToLower(strings.TrimFunc(text, trimmable))
	if s == "" {
		return Reply{}, false
	}
	if d, ok := lookup(s); ok {
		return Reply{Decision: d}, true
	}

	// Trailing prompt number: "<token> 3" or "<token> #3".
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return Reply{}, false
	}
	head := strings.TrimFunc(s[:i], trimmable)
	num, ok := parseNumber(s[i+1:])
	if !ok {
		return Reply{}, false
	}
	d, ok := lookup(head)
	if !ok {
		return Reply{}, false
	}
	return Reply{Decision: d, Number: num}, true
}

func lookup(token string) (model.Decision, bool) {
	switch {
	case affirmative[token]:
		return model.DecisionApprove, true
	case negative[token]:
		return model.DecisionDeny, true
	}
	return "", false
}

func parseNumber(s string) (int64, bool) {
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.ParseInt(normalizeDigits(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// normalizeDigits maps Arabic-Indic digits to ASCII.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '٠' && r <= '٩' {
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

func trimmable(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', '!', '?', ',', '؟', '،', '*', '"', '\'':
		return true
	}
	return false
}
