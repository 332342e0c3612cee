package usecase

import (
	"regexp"
	"strconv"
)

// TransTextMatcher extracts invoice numbers from free-text bank statement
// lines of the conventional form "<prefix> #<number> ...". It lives at the
// reconciliation boundary; the matching core only ever sees a resolved
// invoice reference.
type TransTextMatcher struct {
	re *regexp.Regexp
}

// NewTransTextMatcher compiles the matcher for the configured prefix.
func NewTransTextMatcher(prefix string) *TransTextMatcher {
	return &TransTextMatcher{
		re: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + ` #(\d+)( .*)?$`),
	}
}

// Match extracts the invoice number, returning ok=false when the text does
// not follow the convention.
func (m *TransTextMatcher) Match(text string) (int64, bool) {
	groups := m.re.FindStringSubmatch(text)
	if groups == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(groups[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
