package sources

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

const (
	one2CarName      = "one2car"
	one2CarSearchURL = "https://www.one2car.com/รถมือสอง-สำหรับ-ขาย"
)

var (
	one2CarIDRe        = regexp.MustCompile(`/(\d{5,})(?:$|[/?#])`)
	one2CarWebpRe      = regexp.MustCompile(`(?i)\.(jpe?g|png)\.webp$`)
	one2CarZeroWidthRe = regexp.MustCompile("[\u200b\u200c\u200d\\s]+")

	// text that marks an element as a location rather than a seller blurb
	one2CarProvinceHints = []string{"กรุงเทพ", "นคร", "บุรี", "จังหวัด", "ปริมณฑล", "เชียง", "ภูเก็ต", "สมุทร", "ราชบุรี"}

	titleCaser = cases.Title(language.Und)
)

// One2Car reads listings from one2car.com
type One2Car struct {
	title    Strategy
	price    Strategy
	seller   Strategy
	location Strategy
}

// NewOne2Car creates the one2car extractor
func NewOne2Car() *One2Car {
	return &One2Car{
		title: Text("h1.listing__title, h1"),
		price: FirstOf(
			TextContaining("#details-gallery .listing__item-price *", "บาท", "เฉลี่ย"),
			TextContaining("#details-gallery *", "บาท", "เฉลี่ย"),
			Text(".c-card__price-value, .c-card__price .u-text-bold, .listing__price, [data-testing-id='price']"),
			OwnTextContaining("body *", "บาท", "เฉลี่ย"),
			OwnTextContaining("body *", "฿", "เฉลี่ย"),
			JSONLD("offers", "price"),
			JSONLD("offers", "lowPrice"),
			JSONLD("offers", "highPrice"),
		),
		seller: FirstOf(
			minLenText("div[class*='seller'] h2", 2),
			minLenText("div.c-seller h2", 2),
			minLenText("h2.u-text-6", 2),
			minLenText(".seller__name, .c-seller__name, .u-text-bold.seller-name", 2),
		),
		location: FirstOf(
			one2CarHintedLocation,
			JSONLD("address", "addressLocality"),
			JSONLD("address", "addressRegion"),
		),
	}
}

func (o *One2Car) Name() string { return one2CarName }

func (o *One2Car) SearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.Query) == "" {
		return one2CarSearchURL
	}
	return one2CarSearchURL + "?keyword=" + url.QueryEscape(strings.TrimSpace(q.Query))
}

func (o *One2Car) ListingLinks(pageURL, html string, q SearchQuery, limit int) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse one2car results page: %w", err)
	}
	links := newLinkCollector(limit)
	doc.Find("article.listing.c-listing, article.c-listing").Each(func(_ int, card *goquery.Selection) {
		links.add(CleanLink(pageURL, card.Find("a.c-stretched-link").First().AttrOr("href", "")))
	})
	if !links.full() {
		doc.Find("a[href*='/for-sale/']").Each(func(_ int, a *goquery.Selection) {
			links.add(CleanLink(pageURL, a.AttrOr("href", "")))
		})
	}
	return links.links, nil
}

func (o *One2Car) Extract(pageURL, html string) (*entities.PartialListing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse one2car listing: %w", err)
	}

	title := o.title(doc)
	price := amountPtr(o.price(doc))
	seller := o.seller(doc)
	location := strings.Trim(strings.ReplaceAll(o.location(doc), "•", ""), " ,")
	details := Pairs(doc, ".c-key-details__item .c-card__body", "span.u-color-muted", "span.u-text-bold")

	attrs := entities.Attributes{}
	setAttr(attrs, normalizer.KeyTitle, title)
	setAttr(attrs, "ชื่อรถ", title)
	if price != nil {
		attrs[normalizer.KeyPrice] = strconv.FormatInt(*price, 10)
	}
	if v := specString(details, "ปีที่ผลิต"); v != "" {
		attrs[normalizer.KeyYear] = v
		attrs[normalizer.KeyYearShort] = v
	}
	setAttr(attrs, normalizer.KeyMileage, specString(details, "เลขไมล์ (กม.)"))
	if v := specString(details, "ระบบเกียร์"); v != "" {
		attrs[normalizer.KeyGearSystem] = v
		attrs[normalizer.KeyGear] = v
	}
	setAttr(attrs, normalizer.KeyColor, specString(details, "สี"))
	if v := specString(details, "ประเภทเชื้อเพลิง"); v != "" {
		attrs[normalizer.KeyFuelType] = v
		attrs[normalizer.KeyFuel] = v
		attrs[normalizer.KeyOilType] = v
	}

	raw, webp, jpg := one2CarImage(doc)
	setAttr(attrs, "ลิงก์รูป_raw", raw)
	setAttr(attrs, "ลิงก์รูป_webp", webp)
	setAttr(attrs, "ลิงก์รูป_jpg", jpg)
	image := firstNonEmpty(jpg, webp)
	setAttr(attrs, normalizer.KeyImage, image)
	setAttr(attrs, normalizer.KeySeller, seller)
	setAttr(attrs, normalizer.KeyProvince, location)

	brand, model := one2CarBrandModel(title)
	setAttr(attrs, normalizer.KeyBrand, brand)
	setAttr(attrs, normalizer.KeyModel, model)

	return &entities.PartialListing{
		Source:     one2CarName,
		SourceURL:  pageURL,
		SourceID:   submatch(one2CarIDRe, pageURL),
		Title:      title,
		Brand:      brand,
		Model:      model,
		Year:       ExtractYear(attrs.String(normalizer.KeyYear), title),
		Price:      price,
		Mileage:    amountPtr(attrs.String(normalizer.KeyMileage)),
		Province:   location,
		ImageURL:   image,
		Attributes: attrs,
	}, nil
}

// one2CarBrandModel splits "2019 toyota yaris ativ" into ("Toyota", "yaris").
func one2CarBrandModel(title string) (string, string) {
	parts := strings.Fields(title)
	if len(parts) < 2 {
		return "", ""
	}
	if _, err := strconv.Atoi(parts[0]); err == nil {
		if len(parts) < 3 {
			return titleCaser.String(strings.ToLower(parts[1])), ""
		}
		return titleCaser.String(strings.ToLower(parts[1])), parts[2]
	}
	return titleCaser.String(strings.ToLower(parts[0])), parts[1]
}

func one2CarHintedLocation(doc *goquery.Document) string {
	selectors := []string{
		"div[class*='location']",
		"div.c-card__location",
		".seller__address",
		".c-seller__address",
		".u-text-truncate.c-card__label",
		"span.c-chip",
	}
	for _, sel := range selectors {
		var out string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := squash(s.Text())
			for _, hint := range one2CarProvinceHints {
				if strings.Contains(t, hint) {
					out = t
					return false
				}
			}
			return true
		})
		if out != "" {
			return out
		}
	}
	return ""
}

// one2CarImage picks one photo and returns its raw URL, a cleaned URL and a
// cleaned URL with the .webp suffix removed.
func one2CarImage(doc *goquery.Document) (string, string, string) {
	raw := one2CarGalleryImage(doc)
	if raw == "" {
		raw = firstImageURL(doc, "img[src*='icarcdn.com'], img[data-src*='icarcdn.com'], picture source[srcset*='icarcdn.com']")
	}
	if raw == "" {
		raw = firstImageURL(doc, "img[src], img[data-src], picture source[srcset]")
	}
	if raw == "" {
		return "", "", ""
	}
	webp := cleanImageURL(raw)
	return raw, webp, toJPG(webp)
}

func one2CarGalleryImage(doc *goquery.Document) string {
	data, ok := doc.Find("section#details-gallery[data-images]").First().Attr("data-images")
	if !ok || strings.TrimSpace(data) == "" {
		return ""
	}
	var images map[string]any
	if err := json.Unmarshal([]byte(data), &images); err != nil {
		return ""
	}
	keys := make([]int, 0, len(images))
	byIndex := make(map[int]string, len(images))
	for k, v := range images {
		i, err := strconv.Atoi(k)
		s, isString := v.(string)
		if err != nil || !isString || strings.TrimSpace(s) == "" {
			continue
		}
		keys = append(keys, i)
		byIndex[i] = strings.TrimSpace(s)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Ints(keys)
	return byIndex[keys[0]]
}

func firstImageURL(doc *goquery.Document, selector string) string {
	var out string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src", "srcset"} {
			v := strings.TrimSpace(s.AttrOr(attr, ""))
			if v == "" {
				continue
			}
			if attr == "srcset" {
				v = firstSrcsetURL(v)
			}
			if strings.HasPrefix(v, "http") {
				out = v
				return false
			}
		}
		return true
	})
	return out
}

// cleanImageURL strips whitespace and zero-width characters and re-escapes the path.
func cleanImageURL(raw string) string {
	u := one2CarZeroWidthRe.ReplaceAllString(raw, "")
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	if p, err := url.PathUnescape(parsed.EscapedPath()); err == nil {
		parsed.Path = p
		parsed.RawPath = ""
	}
	return parsed.String()
}

func toJPG(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	parsed.Path = one2CarWebpRe.ReplaceAllString(parsed.Path, ".$1")
	parsed.RawPath = ""
	return parsed.String()
}

func minLenText(selector string, min int) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := squash(s.Text()); len([]rune(t)) >= min {
				out = t
			}
			return out == ""
		})
		return out
	}
}

func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
