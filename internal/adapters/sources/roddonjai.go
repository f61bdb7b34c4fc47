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
	rodDonJaiName    = "roddonjai"
	rodDonJaiBaseURL = "https://www.roddonjai.com/"
	rodDonJaiDetail  = "/service/car-detail/"
)

var (
	rodDonJaiTitleRe = regexp.MustCompile(`^([A-Za-z\p{Thai}]+)\s+(.+)$`)
	rodDonJaiIDRe    = regexp.MustCompile(`/service/car-detail/([^/?#]+)`)

	rodDonJaiGearKeys  = []string{"เกียร์", "ระบบเกียร์", "ประเภทเกียร์", "Transmission"}
	rodDonJaiColorKeys = []string{"สี", "สีภายนอก", "สีตัวถัง", "Exterior Color", "สีรถ"}
	rodDonJaiFuelKeys  = []string{"เชื้อเพลิง", "ประเภทเชื้อเพลิง", "ชนิดเชื้อเพลิง", "ประเภทพลังงาน", "ประเภทเครื่องยนต์", "น้ำมัน"}
)

// RodDonJai reads listings from roddonjai.com
type RodDonJai struct {
	title    Strategy
	price    Strategy
	mileage  Strategy
	seller   Strategy
	province Strategy
}

// NewRodDonJai creates the roddonjai extractor
func NewRodDonJai() *RodDonJai {
	return &RodDonJai{
		title: FirstOf(Text(".css-ldavcx p"), Text("h1, h2, .jss420")),
		price: FirstOf(
			Text("p.MuiTypography-subtitle1.jss275"),
			Text(".css-1sgkmcp ~ div p.MuiTypography-subtitle1"),
		),
		mileage:  Text(".css-j7qwjs p.MuiTypography-body1"),
		seller:   Text("p.MuiTypography-root.css-12zbq1l"),
		province: Text("p.css-1ijcpbd"),
	}
}

func (r *RodDonJai) Name() string { return rodDonJaiName }

func (r *RodDonJai) SearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.Query) == "" {
		return rodDonJaiBaseURL
	}
	return rodDonJaiBaseURL + "?keyword=" + url.QueryEscape(strings.TrimSpace(q.Query))
}

func isRodDonJaiCarURL(link string) bool {
	return strings.Contains(link, rodDonJaiDetail)
}

func (r *RodDonJai) ListingLinks(pageURL, html string, q SearchQuery, limit int) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roddonjai results page: %w", err)
	}
	links := newLinkCollector(limit)
	doc.Find(`a[href^="/service/car-detail/"]`).Each(func(_ int, a *goquery.Selection) {
		link := CleanLink(pageURL, a.AttrOr("href", a.AttrOr("data-href", "")))
		if !isRodDonJaiCarURL(link) {
			return
		}
		if !AllWordsIn(squash(a.Text())+" "+link, q.Query) {
			return
		}
		links.add(link)
	})
	if !links.full() {
		links.scanHrefs(pageURL, html, isRodDonJaiCarURL)
	}
	return links.links, nil
}

func (r *RodDonJai) Extract(pageURL, html string) (*entities.PartialListing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roddonjai listing: %w", err)
	}

	title := r.title(doc)
	priceText := r.price(doc)
	mileage := amountPtr(r.mileage(doc))
	seller := r.seller(doc)
	province := r.province(doc)

	specs := Pairs(doc,
		".MuiCollapse-wrapperInner .MuiGrid-item .d-flex.justify-content-between.mb-1",
		"p.w-50:nth-of-type(1)", "p.w-50:nth-of-type(2)")
	if _, ok := specs[normalizer.KeyMileage]; !ok && mileage != nil {
		specs[normalizer.KeyMileage] = groupThousands(*mileage) + " กม."
	}

	brand := specString(specs, normalizer.KeyBrand)
	model := specString(specs, normalizer.KeyModel)
	if brand == "" || model == "" {
		if m := rodDonJaiTitleRe.FindStringSubmatch(title); m != nil {
			brand = firstNonEmpty(brand, m[1])
			model = firstNonEmpty(model, m[2])
		}
	}
	year := ExtractYear(firstNonEmpty(specString(specs, normalizer.KeyYear), specString(specs, normalizer.KeyRegistered)), title)

	blob := PageText(doc)
	gear := firstNonEmpty(specString(specs, rodDonJaiGearKeys...), normalizer.ExtractLabeled(blob, rodDonJaiGearKeys...))
	color := firstNonEmpty(specString(specs, rodDonJaiColorKeys...), normalizer.ExtractLabeled(blob, rodDonJaiColorKeys...))
	fuel := firstNonEmpty(specString(specs, rodDonJaiFuelKeys...), normalizer.ExtractLabeled(blob, rodDonJaiFuelKeys...))
	carType := specString(specs, "ประเภท", normalizer.KeyBodyType)

	attrs := entities.Attributes{
		normalizer.KeyModelName: title,
		normalizer.KeySpecs:     specs,
	}
	setAttr(attrs, normalizer.KeySeller, seller)
	setAttr(attrs, normalizer.KeyPriceBaht, cleanMoney(priceText))
	if mileage != nil {
		attrs[normalizer.KeyMileageKm] = groupThousands(*mileage)
	}
	setAttr(attrs, normalizer.KeyGear, gear)
	setAttr(attrs, normalizer.KeyCarLocation, province)
	setAttr(attrs, normalizer.KeyBrand, brand)
	setAttr(attrs, normalizer.KeyModel, model)
	setAttr(attrs, normalizer.KeyBodyType, carType)
	setAttr(attrs, normalizer.KeyColor, color)
	setAttr(attrs, normalizer.KeyOilType, fuel)
	setAttr(attrs, normalizer.KeyFuel, fuel)

	return &entities.PartialListing{
		Source:     rodDonJaiName,
		SourceURL:  pageURL,
		SourceID:   submatch(rodDonJaiIDRe, pageURL),
		Title:      title,
		Brand:      brand,
		Model:      model,
		Year:       year,
		Price:      amountPtr(priceText),
		Mileage:    mileage,
		Province:   province,
		ImageURL:   rodDonJaiImage(doc),
		Attributes: attrs,
	}, nil
}

// rodDonJaiImage prefers the watermarked gallery photo over logos and icons.
func rodDonJaiImage(doc *goquery.Document) string {
	var first, marked string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if !strings.HasPrefix(src, "http") {
			return true
		}
		if first == "" {
			first = src
		}
		if strings.Contains(src, "WATERMARK") {
			marked = src
			return false
		}
		return true
	})
	return firstNonEmpty(marked, first)
}

func specString(specs map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := specs[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
