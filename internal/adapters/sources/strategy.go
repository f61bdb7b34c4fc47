package sources

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy reads one field from a page and returns "" when it finds nothing.
type Strategy func(doc *goquery.Document) string

// FirstOf tries strategies in order and returns the first non-empty result.
func FirstOf(strategies ...Strategy) Strategy {
	return func(doc *goquery.Document) string {
		for _, s := range strategies {
			if s == nil {
				continue
			}
			if v := strings.TrimSpace(s(doc)); v != "" {
				return v
			}
		}
		return ""
	}
}

// Text returns the text of the first element matching selector that has any.
func Text(selector string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = squash(s.Text())
			return out == ""
		})
		return out
	}
}

// Attr returns the first non-empty attr value among elements matching selector.
func Attr(selector, attr string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, ok := s.Attr(attr); ok {
				out = strings.TrimSpace(v)
			}
			return out == ""
		})
		return out
	}
}

// TextContaining returns the text of the first element matching selector
// that contains needle and none of exclude.
func TextContaining(selector, needle string, exclude ...string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := squash(s.Text())
			if t == "" || !strings.Contains(t, needle) {
				return true
			}
			for _, x := range exclude {
				if strings.Contains(t, x) {
					return true
				}
			}
			out = t
			return false
		})
		return out
	}
}

// OwnTextContaining is TextContaining over each element's own text nodes,
// ignoring the text of its children.
func OwnTextContaining(selector, needle string, exclude ...string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := ownText(s)
			if t == "" || !strings.Contains(t, needle) {
				return true
			}
			for _, x := range exclude {
				if strings.Contains(t, x) {
					return true
				}
			}
			out = t
			return false
		})
		return out
	}
}

func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			b.WriteByte(' ')
		}
	})
	return squash(b.String())
}

// Regex matches pattern against the page text and returns the given group.
func Regex(pattern string, group int) Strategy {
	return Match(PageText, pattern, group)
}

// Match applies pattern to the output of src and returns the given group.
func Match(src Strategy, pattern string, group int) Strategy {
	re := regexp.MustCompile(pattern)
	return func(doc *goquery.Document) string {
		m := re.FindStringSubmatch(src(doc))
		if len(m) <= group {
			return ""
		}
		return strings.TrimSpace(m[group])
	}
}

// Const always returns value.
func Const(value string) Strategy {
	return func(*goquery.Document) string { return value }
}

// JSONLD walks path through every application/ld+json block on the page and
// returns the first scalar found. Arrays are searched element by element.
func JSONLD(path ...string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var data any
			if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
				return true
			}
			out = walkJSON(data, path)
			return out == ""
		})
		return out
	}
}

func walkJSON(v any, path []string) string {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if out := walkJSON(item, path); out != "" {
				return out
			}
		}
		return ""
	case map[string]any:
		if len(path) == 0 {
			return ""
		}
		return walkJSON(node[path[0]], path[1:])
	}
	if len(path) > 0 {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// PageText returns the visible text of the page with one text node per line.
func PageText(doc *goquery.Document) string {
	var lines []string
	collectText(doc.Find("body"), &lines)
	if len(lines) == 0 {
		collectText(doc.Selection, &lines)
	}
	return strings.Join(lines, "\n")
}

func collectText(s *goquery.Selection, out *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			if t := squash(c.Text()); t != "" {
				*out = append(*out, t)
			}
		case "script", "style", "noscript", "#comment":
		default:
			collectText(c, out)
		}
	})
}

// Pairs reads a key/value table. Rows without both parts are skipped; the
// first occurrence of a key wins.
func Pairs(doc *goquery.Document, rowSelector, keySelector, valueSelector string) map[string]any {
	out := map[string]any{}
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		k := squash(row.Find(keySelector).First().Text())
		v := squash(row.Find(valueSelector).First().Text())
		if k == "" || v == "" {
			return
		}
		if _, seen := out[k]; !seen {
			out[k] = v
		}
	})
	return out
}
