package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kaideeResults = `<html><body>
<a class="block cursor-pointer rounded-sm p-md shadow-lg" href="/product-111?ref=home">Toyota Yaris</a>
<a href="https://rod.kaidee.com/product-222">Honda City</a>
<a href="/product-111#gallery">dup</a>
<a href="/c11-auto-car/other">not a listing</a>
</body></html>`

const kaideeListing = `<html><head><meta property="og:image" content="https://img.kaidee.com/1.jpg"></head><body>
<h1>Toyota Yaris 1.2 E ปี 2017</h1>
<div><span>฿ 289,000</span><span>ราคารวมมูลค่าของแถมแล้ว</span></div>
<div class="sc-1t41luv-3 x"><img alt="รูปโปรไฟล์"><span class="sc-3tpgds-0">เต็นท์รถดีดี</span></div>
<ul id="has-attributes">
  <li><span class="sc-3tpgds-0">ยี่ห้อ</span><div><span>Toyota</span></div></li>
  <li><span class="sc-3tpgds-0">รุ่น</span><div><span>Yaris</span></div></li>
  <li><span class="sc-3tpgds-0">ปี</span><div><span>2016</span></div></li>
  <li><span class="sc-3tpgds-0">เลขไมล์</span><div><span>85,000 กม.</span></div></li>
  <li><span class="sc-3tpgds-0">ประเภทเชื้อเพลิง</span><div><span>เบนซิน</span></div></li>
  <li><span class="sc-3tpgds-0">Transmission</span><div><span>อัตโนมัติ</span></div></li>
  <li><span class="sc-3tpgds-0">สี</span><div><span>ขาว</span></div></li>
</ul>
<ul><li><svg></svg><span>ตำแหน่ง</span><span>บางกรวย นนทบุรี</span></li></ul>
</body></html>`

func TestKaidee_ListingLinks(t *testing.T) {
	k := NewKaidee()
	page := k.SearchURL(SearchQuery{Query: "yaris"})
	assert.Equal(t, "https://rod.kaidee.com/c11-auto-car?q=yaris", page)

	links, err := k.ListingLinks(page, kaideeResults, SearchQuery{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://rod.kaidee.com/product-111",
		"https://rod.kaidee.com/product-222",
	}, links)

	links, err = k.ListingLinks(page, kaideeResults, SearchQuery{}, 1)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestKaidee_Extract(t *testing.T) {
	p, err := NewKaidee().Extract("https://rod.kaidee.com/product-111", kaideeListing)
	require.NoError(t, err)

	assert.Equal(t, "kaidee", p.Source)
	assert.Equal(t, "111", p.SourceID)
	assert.Equal(t, "Toyota Yaris 1.2 E ปี 2017", p.Title)
	assert.Equal(t, "Toyota", p.Brand)
	assert.Equal(t, "Yaris", p.Model)
	require.NotNil(t, p.Year)
	assert.Equal(t, 2016, *p.Year, "the attribute year wins over the title")
	require.NotNil(t, p.Price)
	assert.Equal(t, int64(289000), *p.Price)
	require.NotNil(t, p.Mileage)
	assert.Equal(t, int64(85000), *p.Mileage)
	assert.Equal(t, "https://img.kaidee.com/1.jpg", p.ImageURL)
	assert.Equal(t, "บางกรวย นนทบุรี", p.Province)
	assert.Equal(t, "เต็นท์รถดีดี", p.Attributes.String("ผู้ขาย"))
	assert.Equal(t, "เบนซิน", p.Attributes.String("เชื้อเพลิง"))
	assert.Equal(t, "อัตโนมัติ", p.Attributes.String("เกียร์"))
	assert.Equal(t, "ขาว", p.Attributes.String("สี"))
	assert.Equal(t, "บางกรวย นนทบุรี", p.Attributes.String("ที่อยู่"))
}

func TestKaidee_ExtractWithoutPriceCaption(t *testing.T) {
	html := `<html><body><h1>Honda Jazz</h1><span>ติดต่อผู้ขาย</span><span>฿ 199,000</span></body></html>`

	p, err := NewKaidee().Extract("https://rod.kaidee.com/product-9", html)
	require.NoError(t, err)
	require.NotNil(t, p.Price)
	assert.Equal(t, int64(199000), *p.Price)
	assert.Nil(t, p.Year)
	assert.Equal(t, "Honda", p.Brand)
	assert.Equal(t, "Jazz", p.Model)
}

const carsomeResults = `<html><body>
<article class="mod-b-card"><a href="https://www.carsome.co.th/buy-car/toyota/yaris/abc123456?from=list">Toyota Yaris 2019</a></article>
<article class="mod-b-card"><a href="https://www.carsome.co.th/buy-car/honda/city/xyz654321">Honda City 2020</a></article>
<article class="card"><a href="https://www.carsome.co.th/promo">Promo</a></article>
<div><a href="/buy-car/toyota/vios/qqq999888">raw link</a></div>
</body></html>`

const carsomeListing = `<html><body>
<div class="vehicle__title-wrapper"><span>2019 Toyota Yaris 1.2 G</span></div>
<div class="car-price"><span class="price">฿ 415,000</span></div>
<div class="car-mileage">45,210 กม. | ออโต้</div>
<div class="car-all__location-descs">CARSOME บางนา กรุงเทพฯ</div>
<div class="banner__slide"><img src="/relative.jpg"><img src="https://img.carsome/1.jpg"></div>
<div class="car-details-content">
  <div class="detail-item"><span class="key">วันจดทะเบียน</span><span class="value">03/2019</span></div>
  <div class="detail-item"><span class="key">สี</span><span class="value">เทา</span></div>
  <div class="detail-item"><span class="key">ประเภทเชื้อเพลิง</span><span class="value">เบนซิน</span></div>
</div>
</body></html>`

func TestCarsome_ListingLinks(t *testing.T) {
	c := NewCarsome()
	page := c.SearchURL(SearchQuery{})

	links, err := c.ListingLinks(page, carsomeResults, SearchQuery{Query: "toyota"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.carsome.co.th/buy-car/toyota/yaris/abc123456",
		"https://www.carsome.co.th/buy-car/toyota/vios/qqq999888",
	}, links, "cards must match the query; raw hrefs fill the remainder")
}

func TestCarsome_Extract(t *testing.T) {
	url := "https://www.carsome.co.th/buy-car/toyota/yaris/abc123456"
	p, err := NewCarsome().Extract(url, carsomeListing)
	require.NoError(t, err)

	assert.Equal(t, "abc123456", p.SourceID)
	assert.Equal(t, "2019 Toyota Yaris 1.2 G", p.Title)
	assert.Equal(t, "Toyota", p.Brand)
	assert.Equal(t, "Yaris", p.Model)
	assert.Equal(t, 2019, *p.Year)
	assert.Equal(t, int64(415000), *p.Price)
	assert.Equal(t, int64(45210), *p.Mileage)
	assert.Equal(t, "https://img.carsome/1.jpg", p.ImageURL)
	assert.Equal(t, "CARSOME บางนา กรุงเทพฯ", p.Province)

	attrs := p.Attributes
	assert.Equal(t, "CARSOME", attrs.String("ผู้ขาย"))
	assert.Equal(t, "415,000", attrs.String("ราคา(บาท)"))
	assert.Equal(t, "45,210", attrs.String("เลขไมล์(กม.)"))
	assert.Equal(t, "ออโต้", attrs.String("เกียร์"))
	assert.Equal(t, "เบนซิน", attrs.String("ประเภทเชื้อเพลิง"))
	assert.Equal(t, "เทา", attrs.Nested("สเปกย่อย").String("สี"))
	assert.Equal(t, "เบนซิน", attrs.Nested("สเปกย่อย").String("เชื้อเพลิง"))
}

func TestCarsome_FuelFromPageText(t *testing.T) {
	html := `<html><body><h1>Mazda 2</h1><p>ประเภทน้ำมัน: ดีเซล</p></body></html>`

	p, err := NewCarsome().Extract("https://www.carsome.co.th/buy-car/mazda/2/maz100200", html)
	require.NoError(t, err)
	assert.Equal(t, "ดีเซล", p.Attributes.String("เชื้อเพลิง"))
	assert.Nil(t, p.Price)
}

const rodDonJaiListing = `<html><body>
<div class="css-ldavcx"><p>Honda Civic 1.8 EL</p></div>
<p class="MuiTypography-root MuiTypography-subtitle1 jss275">529,000 บาท</p>
<div class="css-j7qwjs"><p class="MuiTypography-root MuiTypography-body1">20,509 กม.</p></div>
<p class="MuiTypography-root css-12zbq1l">ดีลเลอร์ A</p>
<p class="css-1ijcpbd">ชลบุรี</p>
<img src="https://cdn.rdj/logo.png"><img src="https://cdn.rdj/car_WATERMARK_1.jpg">
<div class="MuiCollapse-wrapperInner"><div class="MuiGrid-item">
  <div class="d-flex justify-content-between mb-1"><p class="w-50">ยี่ห้อ</p><p class="w-50">HONDA</p></div>
  <div class="d-flex justify-content-between mb-1"><p class="w-50">ปีรถ</p><p class="w-50">2018</p></div>
  <div class="d-flex justify-content-between mb-1"><p class="w-50">สีภายนอก</p><p class="w-50">ดำ</p></div>
</div></div>
<p>ระบบเกียร์: อัตโนมัติ</p>
</body></html>`

func TestRodDonJai_Extract(t *testing.T) {
	url := "https://www.roddonjai.com/service/car-detail/abc-123"
	p, err := NewRodDonJai().Extract(url, rodDonJaiListing)
	require.NoError(t, err)

	assert.Equal(t, "abc-123", p.SourceID)
	assert.Equal(t, "Honda Civic 1.8 EL", p.Title)
	assert.Equal(t, "HONDA", p.Brand, "spec table brand wins")
	assert.Equal(t, "Civic 1.8 EL", p.Model, "model falls back to the title remainder")
	assert.Equal(t, 2018, *p.Year)
	assert.Equal(t, int64(529000), *p.Price)
	assert.Equal(t, int64(20509), *p.Mileage)
	assert.Equal(t, "ชลบุรี", p.Province)
	assert.Equal(t, "https://cdn.rdj/car_WATERMARK_1.jpg", p.ImageURL)

	attrs := p.Attributes
	assert.Equal(t, "ดีลเลอร์ A", attrs.String("ผู้ขาย"))
	assert.Equal(t, "ดำ", attrs.String("สี"))
	assert.Equal(t, "อัตโนมัติ", attrs.String("เกียร์"), "gear comes from the page text when the table lacks it")
	assert.Equal(t, "20,509 กม.", attrs.Nested("สเปกย่อย").String("เลขไมล์"))
}

func TestRodDonJai_ListingLinks(t *testing.T) {
	html := `<html><body>
<a href="/service/car-detail/aaa">Toyota Yaris</a>
<a href="/service/car-detail/bbb">Honda City</a>
</body></html>`
	r := NewRodDonJai()

	links, err := r.ListingLinks(r.SearchURL(SearchQuery{}), html, SearchQuery{Query: "city"}, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://www.roddonjai.com/service/car-detail/bbb", links[0])
}

const one2CarListing = `<html><head>
<script type="application/ld+json">{"@type":"Car","offers":{"price":"650000"},"address":{"addressLocality":"Chiang Mai"}}</script>
</head><body>
<h1 class="listing__title">2019 toyota fortuner 2.8 V</h1>
<section id="details-gallery" data-images='{"1":"https://img1.icarcdn.com/b.jpg.webp","0":"https://img1.icarcdn.com/a\u200b.jpg.webp"}'>
  <div class="listing__item-price"><span>ราคาเฉลี่ยตลาด 700,000 บาท</span><span>689,000 บาท</span></div>
</section>
<div class="c-key-details__item"><div class="c-card__body"><span class="u-color-muted">ปีที่ผลิต</span><span class="u-text-bold">2019</span></div></div>
<div class="c-key-details__item"><div class="c-card__body"><span class="u-color-muted">เลขไมล์ (กม.)</span><span class="u-text-bold">95,000</span></div></div>
<div class="c-key-details__item"><div class="c-card__body"><span class="u-color-muted">ระบบเกียร์</span><span class="u-text-bold">อัตโนมัติ</span></div></div>
<div class="c-key-details__item"><div class="c-card__body"><span class="u-color-muted">ประเภทเชื้อเพลิง</span><span class="u-text-bold">ดีเซล</span></div></div>
<div class="c-seller"><h2>Auto Plus</h2></div>
</body></html>`

func TestOne2Car_Extract(t *testing.T) {
	url := "https://www.one2car.com/for-sale/toyota-fortuner-bangkok/12345678"
	p, err := NewOne2Car().Extract(url, one2CarListing)
	require.NoError(t, err)

	assert.Equal(t, "12345678", p.SourceID)
	assert.Equal(t, "Toyota", p.Brand)
	assert.Equal(t, "fortuner", p.Model)
	assert.Equal(t, 2019, *p.Year)
	assert.Equal(t, int64(689000), *p.Price, "the gallery price skips the market average")
	assert.Equal(t, int64(95000), *p.Mileage)
	assert.Equal(t, "Chiang Mai", p.Province, "location falls back to JSON-LD")
	assert.Equal(t, "https://img1.icarcdn.com/a.jpg", p.ImageURL)

	attrs := p.Attributes
	assert.Equal(t, "Auto Plus", attrs.String("ผู้ขาย"))
	assert.Equal(t, "ดีเซล", attrs.String("น้ำมัน"))
	assert.Equal(t, "อัตโนมัติ", attrs.String("เกียร์"))
	assert.Equal(t, "https://img1.icarcdn.com/a.jpg.webp", attrs.String("ลิงก์รูป_webp"))
}

func TestOne2Car_PriceFromJSONLD(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"offers":{"price":"650000"}}</script></head><body><h1>Isuzu D-Max</h1></body></html>`

	p, err := NewOne2Car().Extract("https://www.one2car.com/for-sale/isuzu-1", html)
	require.NoError(t, err)
	require.NotNil(t, p.Price)
	assert.Equal(t, int64(650000), *p.Price)
	assert.Equal(t, "Isuzu", p.Brand)
	assert.Equal(t, "D-Max", p.Model)
}

func TestOne2Car_ListingLinks(t *testing.T) {
	html := `<html><body>
<article class="listing c-listing"><a class="c-stretched-link" href="https://www.one2car.com/for-sale/a-1">A</a></article>
<a href="/for-sale/b-2">B</a>
</body></html>`
	o := NewOne2Car()

	links, err := o.ListingLinks(o.SearchURL(SearchQuery{}), html, SearchQuery{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.one2car.com/for-sale/a-1", "https://www.one2car.com/for-sale/b-2"}, links)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{"carsome", "kaidee", "one2car", "roddonjai"}, r.Names())
	e, ok := r.Get(" Kaidee ")
	require.True(t, ok)
	assert.Equal(t, "kaidee", e.Name())
	_, ok = r.Get("bahtsold")
	assert.False(t, ok)
}
