package sources

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
)

var (
	amountRe     = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	yearRe       = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2}|2100)(?:\D|$)`)
	brandModelRe = regexp.MustCompile(`^([A-Za-z\p{Thai}]+)\s+([A-Za-z0-9.\-]+)`)
	spaceRe      = regexp.MustCompile(`\s+`)
	hrefRe       = regexp.MustCompile(`href="([^"]+)"`)
)

// ParseAmount reads the first number in s, such as "฿459,000." or
// "20,509 กม.". Thousands separators are dropped, as is any fraction.
func ParseAmount(s string) (int64, bool) {
	m := amountRe.FindString(s)
	if m == "" {
		return 0, false
	}
	if i := strings.IndexByte(m, '.'); i >= 0 {
		m = m[:i]
	}
	m = strings.ReplaceAll(m, ",", "")
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func amountPtr(s string) *int64 {
	if n, ok := ParseAmount(s); ok {
		return &n
	}
	return nil
}

// ExtractYear returns the first plausible model year found in texts, tried
// in order, or nil.
func ExtractYear(texts ...string) *int {
	for _, t := range texts {
		m := yearRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		y, err := strconv.Atoi(m[1])
		if err == nil && entities.PlausibleYear(y) {
			return &y
		}
	}
	return nil
}

// SplitBrandModel guesses brand and model from a title like
// "2018 Toyota Yaris 1.2 E". A leading year is skipped.
func SplitBrandModel(title string) (string, string) {
	t := strings.TrimSpace(title)
	if fields := strings.Fields(t); len(fields) > 1 && ExtractYear(fields[0]) != nil && len(fields[0]) == 4 {
		t = strings.Join(fields[1:], " ")
	}
	m := brandModelRe.FindStringSubmatch(t)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// CleanLink resolves href against base and drops the query, fragment and
// trailing slash. It returns "" for anything that is not http(s).
func CleanLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if b, err := url.Parse(base); err == nil {
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.RawQuery = ""
	ref.Fragment = ""
	return strings.TrimRight(ref.String(), "/")
}

// AllWordsIn reports whether every whitespace-separated word of query occurs
// in text, case-insensitively. An empty query matches everything.
func AllWordsIn(text, query string) bool {
	blob := strings.ToLower(text)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(blob, w) {
			return false
		}
	}
	return true
}

func squash(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ReplaceAll(s, "\u00a0", " "), " "))
}

func parseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// linkCollector keeps links unique and in discovery order.
type linkCollector struct {
	limit int
	seen  map[string]bool
	links []string
}

func newLinkCollector(limit int) *linkCollector {
	return &linkCollector{limit: limit, seen: map[string]bool{}}
}

func (c *linkCollector) add(link string) {
	if link == "" || c.seen[link] || c.full() {
		return
	}
	c.seen[link] = true
	c.links = append(c.links, link)
}

func (c *linkCollector) full() bool {
	return c.limit > 0 && len(c.links) >= c.limit
}

// scanHrefs adds every raw href="..." in html that passes keep. It catches
// links rendered outside the card markup the selectors expect.
func (c *linkCollector) scanHrefs(base, html string, keep func(string) bool) {
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		if c.full() {
			return
		}
		if link := CleanLink(base, m[1]); link != "" && keep(link) {
			c.add(link)
		}
	}
}
