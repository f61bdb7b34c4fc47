package normalizer

import (
	"regexp"
	"strings"
	"sync"
)

var (
	labeledMu    sync.Mutex
	labeledCache = map[string]*regexp.Regexp{}
	gapRe        = regexp.MustCompile(`\s{2,}`)
)

// ExtractLabeled finds the first "<label>: <value>" pair in blob for any of
// labels and returns the trimmed value. Both ASCII and full-width colons are
// accepted, and the value may start on the line after the label. The value
// ends at a line break, a separator or a wide gap.
func ExtractLabeled(blob string, labels ...string) string {
	if blob == "" || len(labels) == 0 {
		return ""
	}
	m := labeledPattern(labels).FindStringSubmatch(blob)
	if m == nil {
		return ""
	}
	value := m[1]
	if loc := gapRe.FindStringIndex(value); loc != nil {
		value = value[:loc[0]]
	}
	return strings.TrimSpace(value)
}

func labeledPattern(labels []string) *regexp.Regexp {
	key := strings.Join(labels, "\x00")
	labeledMu.Lock()
	defer labeledMu.Unlock()
	if re, ok := labeledCache[key]; ok {
		return re
	}
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	re := regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)[ \t]*[:：]\s*([^\n\r|;,:：]+)`)
	labeledCache[key] = re
	return re
}
