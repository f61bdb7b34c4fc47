package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

const (
	kaideeName    = "kaidee"
	kaideeBaseURL = "https://rod.kaidee.com/c11-auto-car"
)

var kaideeIDRe = regexp.MustCompile(`product-(\d+)`)

// Kaidee reads listings from rod.kaidee.com
type Kaidee struct {
	title    Strategy
	price    Strategy
	seller   Strategy
	image    Strategy
	location Strategy
}

// NewKaidee creates the kaidee extractor
func NewKaidee() *Kaidee {
	return &Kaidee{
		title: Text("h1"),
		price: FirstOf(
			kaideePriceNearLabel,
			TextContaining("span", "฿"),
			TextContaining("span", ","),
		),
		seller: FirstOf(
			Text("div[class*='sc-1t41luv-3']:has(img[alt='รูปโปรไฟล์']) span.sc-3tpgds-0"),
			Text("div[class*='sc-1k125n6-2'] span.sc-3tpgds-0"),
			Text("span.sc-3tpgds-0"),
		),
		image: FirstOf(
			Attr(`meta[property="og:image"]`, "content"),
			Attr("img", "src"),
		),
		location: FirstOf(
			kaideeLabeledLocation,
			lastText("li:has(svg) span[class*='sc-mj06cq-1'], li:has(svg) span.biQatR"),
		),
	}
}

func (k *Kaidee) Name() string { return kaideeName }

func (k *Kaidee) SearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.Query) == "" {
		return kaideeBaseURL
	}
	return kaideeBaseURL + "?q=" + url.QueryEscape(strings.TrimSpace(q.Query))
}

func (k *Kaidee) ListingLinks(pageURL, html string, q SearchQuery, limit int) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kaidee results page: %w", err)
	}
	links := newLinkCollector(limit)
	doc.Find(`a.block.cursor-pointer.rounded-sm.p-md.shadow-lg, a[href*="product-"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link := CleanLink(pageURL, href); strings.Contains(link, "product-") {
			links.add(link)
		}
	})
	return links.links, nil
}

func (k *Kaidee) Extract(pageURL, html string) (*entities.PartialListing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kaidee listing: %w", err)
	}

	attrs := entities.Attributes{}
	doc.Find("ul#has-attributes > li").Each(func(_ int, li *goquery.Selection) {
		label := squash(li.Find("span.sc-3tpgds-0").First().Text())
		value := squash(li.Find("div > span").First().Text())
		if label == "" || value == "" {
			return
		}
		attrs[kaideeAttrKey(label)] = value
	})

	title := k.title(doc)
	priceText := k.price(doc)
	seller := k.seller(doc)
	image := k.image(doc)
	location := k.location(doc)

	setAttr(attrs, normalizer.KeyTitle, title)
	setAttr(attrs, normalizer.KeyPrice, priceText)
	setAttr(attrs, normalizer.KeySeller, seller)
	setAttr(attrs, normalizer.KeyImage, image)
	setAttr(attrs, normalizer.KeyAddress, location)
	setAttr(attrs, normalizer.KeyLink, pageURL)

	p := &entities.PartialListing{
		Source:     kaideeName,
		SourceURL:  pageURL,
		SourceID:   submatch(kaideeIDRe, pageURL),
		Title:      title,
		Brand:      attrs.String(normalizer.KeyBrand),
		Model:      attrs.String(normalizer.KeyModel),
		Year:       ExtractYear(attrs.FirstString(normalizer.KeyYear, normalizer.KeyYearShort, normalizer.KeyYearMade), title),
		Price:      amountPtr(priceText),
		Mileage:    amountPtr(attrs.String(normalizer.KeyMileage)),
		Province:   location,
		ImageURL:   image,
		Attributes: attrs,
	}
	if p.Brand == "" || p.Model == "" {
		b, m := SplitBrandModel(title)
		p.Brand = firstNonEmpty(p.Brand, b)
		p.Model = firstNonEmpty(p.Model, m)
	}
	return p, nil
}

// kaideeAttrKey folds the attribute labels kaidee uses in either language
// into the keys the normalizer reads.
func kaideeAttrKey(label string) string {
	has := func(parts ...string) bool {
		for _, p := range parts {
			if strings.Contains(label, p) {
				return true
			}
		}
		return false
	}
	switch {
	case has("Body type", "ประเภทรถ", "ประเภทตัวถัง"):
		return normalizer.KeyBodyType
	case has("Fuel", "เชื้อเพลิง", "ประเภทน้ำมัน"):
		return normalizer.KeyFuel
	case has("Transmission", "เกียร์"):
		return normalizer.KeyGear
	}
	return label
}

// kaideePriceNearLabel reads the amount shown right before the
// "price including gifts" caption.
func kaideePriceNearLabel(doc *goquery.Document) string {
	var out string
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "ราคารวมมูลค่าของแถมแล้ว") || s.Find("span").Length() > 0 {
			return true
		}
		prev := s.PrevFiltered("span")
		if prev.Length() == 0 {
			prev = s.PrevAllFiltered("span").First()
		}
		out = squash(prev.Text())
		return out == ""
	})
	return out
}

func kaideeLabeledLocation(doc *goquery.Document) string {
	var out string
	doc.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		spans := li.Find("span")
		labeled := false
		spans.Each(func(_ int, s *goquery.Selection) {
			if squash(s.Text()) == "ตำแหน่ง" {
				labeled = true
			}
		})
		if !labeled {
			return true
		}
		spans.Each(func(_ int, s *goquery.Selection) {
			if t := squash(s.Text()); t != "" && t != "ตำแหน่ง" {
				out = t
			}
		})
		return out == ""
	})
	return out
}

// lastText returns the text of the last element matching selector.
func lastText(selector string) Strategy {
	return func(doc *goquery.Document) string {
		return squash(doc.Find(selector).Last().Text())
	}
}

func setAttr(attrs entities.Attributes, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
