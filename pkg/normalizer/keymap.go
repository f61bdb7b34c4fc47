package normalizer

// Attribute keys shared by extractors, filters and the store
const (
	KeyTitle        = "ชื่อประกาศ"
	KeyBrand        = "ยี่ห้อ"
	KeyModel        = "รุ่น"
	KeySubmodel     = "รุ่นย่อย"
	KeyModelName    = "ชื่อรุ่น"
	KeyYear         = "ปีรถ"
	KeyYearShort    = "ปี"
	KeyYearMade     = "ปีผลิต"
	KeyRegistered   = "ปีจดทะเบียน"
	KeyPrice        = "ราคา"
	KeyPriceBaht    = "ราคา(บาท)"
	KeyMileage      = "เลขไมล์"
	KeyMileageKm    = "เลขไมล์(กม.)"
	KeyFuel         = "เชื้อเพลิง"
	KeyFuelType     = "ประเภทเชื้อเพลิง"
	KeyOilType      = "น้ำมัน"
	KeyGear         = "เกียร์"
	KeyGearSystem   = "ระบบเกียร์"
	KeyBodyType     = "ประเภทรถ"
	KeyBodyShape    = "ประเภทตัวถัง"
	KeyBodyShell    = "ตัวถัง"
	KeyBodySubtype  = "ประเภทย่อย"
	KeyColor        = "สี"
	KeyProvince     = "จังหวัด"
	KeyAddress      = "ที่อยู่"
	KeyLocation     = "ตำแหน่ง"
	KeyCarLocation  = "ที่ตั้งรถ"
	KeySeller       = "ผู้ขาย"
	KeyImage        = "รูปภาพ"
	KeyLink         = "ลิงก์"
	KeySpecs        = "สเปกย่อย"
	KeyProvinceTh   = "province_th"
	KeyEnglishBlock = "_en"
)

// FuelKeys are the labels sources use for the fuel type, in lookup order
var FuelKeys = []string{"ประเภทเชื้อเพลิง", "เชื้อเพลิง", "ประเภทน้ำมัน", "ชนิดเชื้อเพลิง", "ประเภทพลังงาน", "น้ำมัน"}

var keyMap = map[string]string{
	KeyTitle:     "title",
	KeyBrand:     "brand",
	KeyModel:     "model",
	KeySubmodel:  "submodel",
	KeyYear:      "year",
	KeyYearShort: "year",
	KeyPrice:     "price",
	KeyMileage:   "mileage_km",
	KeyFuel:      "fuel",
	KeyFuelType:  "fuel",
	KeyGear:      "gear",
	KeyBodyType:  "body_type",
	KeyColor:     "color",
	KeyProvince:  "province",
	KeyAddress:   "province",
	KeyLocation:  "province",
	KeyImage:     "image_url",
	KeyLink:      "url",
}

// CanonicalKey maps a Thai attribute key to its English field name
func CanonicalKey(thaiKey string) (string, bool) {
	en, ok := keyMap[thaiKey]
	return en, ok
}

// EnglishFields are the fields the translation enrichment fills in
var EnglishFields = []string{"title", "brand", "model", "submodel", "province", "color", "fuel", "gear", "body_type"}
