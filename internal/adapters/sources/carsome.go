package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

const (
	carsomeName    = "carsome"
	carsomeBaseURL = "https://www.carsome.co.th/buy-car"
	carsomeSeller  = "CARSOME"
	carsomeSpecRow = ".car-details-content .detail-item, .detail__car-spec .detail-item"
)

var (
	carsomeCarRe     = regexp.MustCompile(`(?i)/([a-z]{3}\d{3,})/?$`)
	carsomeMileageRe = regexp.MustCompile(`([\d,]+)\s*กม`)
	carsomeGearRe    = regexp.MustCompile(`\|\s*([A-Za-z\p{Thai}]+)`)
)

// Carsome reads listings from carsome.co.th
type Carsome struct {
	title        Strategy
	price        Strategy
	mileageGear  Strategy
	transmission Strategy
	location     Strategy
	image        Strategy
}

// NewCarsome creates the carsome extractor
func NewCarsome() *Carsome {
	return &Carsome{
		title: FirstOf(
			Text(".vehicle__title-wrapper span"),
			Text(".car-info-left .car-info-top"),
			Text(".head-mobile__title"),
			Text("h1"),
		),
		price: FirstOf(
			Text(".car-price .price"),
			Text(".detail__price .price"),
			Text(".car__price"),
		),
		mileageGear:  FirstOf(Text(".car-mileage"), Text(".detail__car-info")),
		transmission: Text(".transmission"),
		location:     FirstOf(Text(".car-all__location-descs"), Text(".detail__location")),
		image:        httpImage(".banner__slide img[src], .detail__images img[src]"),
	}
}

func (c *Carsome) Name() string { return carsomeName }

func (c *Carsome) SearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.Query) == "" {
		return carsomeBaseURL
	}
	return carsomeBaseURL + "?keyword=" + url.QueryEscape(strings.TrimSpace(q.Query))
}

// IsCarsomeCarURL reports whether link points at a single carsome listing
func IsCarsomeCarURL(link string) bool {
	return strings.Contains(link, "/buy-car/") && carsomeCarRe.MatchString(link)
}

func (c *Carsome) ListingLinks(pageURL, html string, q SearchQuery, limit int) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse carsome results page: %w", err)
	}
	links := newLinkCollector(limit)
	doc.Find("article.mod-b-card, article.card, article[class*='car-card']").Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find("a[href]").First().Attr("href")
		link := CleanLink(pageURL, href)
		if link == "" || !IsCarsomeCarURL(link) {
			return
		}
		if !AllWordsIn(squash(card.Text())+" "+link, q.Query) {
			return
		}
		links.add(link)
	})
	if !links.full() {
		links.scanHrefs(pageURL, html, func(link string) bool {
			return IsCarsomeCarURL(link) && AllWordsIn(link, q.Query)
		})
	}
	return links.links, nil
}

func (c *Carsome) Extract(pageURL, html string) (*entities.PartialListing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse carsome listing: %w", err)
	}

	title := c.title(doc)
	priceText := c.price(doc)
	infoLine := c.mileageGear(doc)
	location := c.location(doc)
	specs := Pairs(doc, carsomeSpecRow, ".key", ".value")

	var mileage *int64
	if m := carsomeMileageRe.FindStringSubmatch(infoLine); m != nil {
		mileage = amountPtr(m[1])
	}
	gear := firstNonEmpty(submatch(carsomeGearRe, infoLine), c.transmission(doc))
	fuel := carsomeFuel(doc, specs)

	attrs := entities.Attributes{
		normalizer.KeySeller:    carsomeSeller,
		normalizer.KeyModelName: title,
		normalizer.KeySpecs:     specs,
	}
	setAttr(attrs, normalizer.KeyPriceBaht, cleanMoney(priceText))
	if mileage != nil {
		attrs[normalizer.KeyMileageKm] = groupThousands(*mileage)
	}
	setAttr(attrs, normalizer.KeyGear, gear)
	setAttr(attrs, normalizer.KeyCarLocation, location)
	if fuel != "" {
		attrs[normalizer.KeyFuelType] = fuel
		attrs[normalizer.KeyFuel] = fuel
		if _, ok := specs[normalizer.KeyFuel]; !ok {
			specs[normalizer.KeyFuel] = fuel
		}
	}

	brand, model := SplitBrandModel(title)
	return &entities.PartialListing{
		Source:     carsomeName,
		SourceURL:  pageURL,
		SourceID:   submatch(carsomeCarRe, pageURL),
		Title:      title,
		Brand:      brand,
		Model:      model,
		Year:       ExtractYear(carsomeRegistration(specs), title),
		Price:      amountPtr(priceText),
		Mileage:    mileage,
		Province:   location,
		ImageURL:   c.image(doc),
		Attributes: attrs,
	}, nil
}

// carsomeFuel looks in the spec table, then any detail row, then the page text.
func carsomeFuel(doc *goquery.Document, specs map[string]any) string {
	keys := []string{"ประเภทเชื้อเพลิง", "เชื้อเพลิง", "ประเภทน้ำมัน", "ชนิดเชื้อเพลิง", "ประเภทพลังงาน"}
	for _, k := range keys {
		if v, ok := specs[k].(string); ok && v != "" {
			return v
		}
	}
	var out string
	doc.Find(".detail-item").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		k := squash(row.Find(".key").First().Text())
		for _, alt := range keys {
			if strings.Contains(k, alt) {
				out = squash(row.Find(".value").First().Text())
				break
			}
		}
		return out == ""
	})
	if out != "" {
		return out
	}
	return normalizer.ExtractLabeled(PageText(doc), "ประเภทเชื้อเพลิง", "เชื้อเพลิง", "ประเภทน้ำมัน")
}

func carsomeRegistration(specs map[string]any) string {
	for k, v := range specs {
		if s, ok := v.(string); ok && strings.Contains(k, "วันจดทะเบียน") {
			return s
		}
	}
	s, _ := specs["ปี"].(string)
	return s
}

// httpImage returns the first absolute image src among elements matching selector.
func httpImage(selector string) Strategy {
	return func(doc *goquery.Document) string {
		var out string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if src := strings.TrimSpace(s.AttrOr("src", "")); strings.HasPrefix(src, "http") {
				out = src
			}
			return out == ""
		})
		return out
	}
}

// cleanMoney keeps only digits and separators of a price text
func cleanMoney(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			return r
		}
		return -1
	}, s))
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
