package normalizer

import "sort"

type entry struct {
	phrase    string
	canonical string
}

var colorTable = longestFirst([]entry{
	{"ดำ", "Black"},
	{"ขาว", "White"},
	{"เทา", "Gray"},
	{"เงิน", "Silver"},
	{"แดง", "Red"},
	{"น้ำเงิน", "Blue"},
	{"ฟ้า", "Light Blue"},
	{"เขียว", "Green"},
	{"ส้ม", "Orange"},
	{"เหลือง", "Yellow"},
	{"ชมพู", "Pink"},
	{"ม่วง", "Purple"},
	{"น้ำตาล", "Brown"},
	{"ทอง", "Gold"},
	{"เบจ", "Beige"},
	{"ครีม", "Cream"},
	{"บรอนซ์เงิน", "Silver"},
	{"บรอนซ์ทอง", "Gold"},
	{"กากี", "Khaki"},
	{"กรมท่า", "Navy Blue"},
	{"โรสโกลด์", "Rose Gold"},
	{"เนื้อ", "Nude"},
	{"หลากสี", "Multicolor"},
	{"black", "Black"},
	{"white", "White"},
	{"gray", "Gray"},
	{"grey", "Gray"},
	{"silver", "Silver"},
	{"red", "Red"},
	{"blue", "Blue"},
	{"light blue", "Light Blue"},
	{"navy blue", "Navy Blue"},
	{"green", "Green"},
	{"orange", "Orange"},
	{"yellow", "Yellow"},
	{"pink", "Pink"},
	{"purple", "Purple"},
	{"brown", "Brown"},
	{"gold", "Gold"},
	{"rose gold", "Rose Gold"},
	{"beige", "Beige"},
	{"cream", "Cream"},
	{"khaki", "Khaki"},
	{"nude", "Nude"},
	{"multicolor", "Multicolor"},
})

var fuelTable = longestFirst([]entry{
	{"เบนซิน", "Benzine"},
	{"แก๊สโซฮอล์", "Benzine"},
	{"ดีเซล", "Diesel"},
	{"ไฮบริด", "Hybrid"},
	{"ไฟฟ้า", "EV"},
	{"ปลั๊กอินไฮบริด", "PHEV"},
	{"benzine", "Benzine"},
	{"gasoline", "Benzine"},
	{"petrol", "Benzine"},
	{"diesel", "Diesel"},
	{"hybrid", "Hybrid"},
	{"plug-in hybrid", "PHEV"},
	{"phev", "PHEV"},
	{"electric", "EV"},
	{"ev", "EV"},
})

var transmissionTable = longestFirst([]entry{
	{"เกียร์ธรรมดา", "Manual"},
	{"ธรรมดา", "Manual"},
	{"เอ็มที", "Manual"},
	{"mt", "Manual"},
	{"manual", "Manual"},
	{"เกียร์อัตโนมัติ", "Automatic"},
	{"อัตโนมัติ", "Automatic"},
	{"ออโต้", "Automatic"},
	{"เอที", "Automatic"},
	{"auto", "Automatic"},
	{"at", "Automatic"},
	{"automatic", "Automatic"},
	{"cvt", "Automatic"},
})

// coarse body-type table, consulted after the specific rules in NormalizeBodyType
var bodyTypeTable = longestFirst([]entry{
	{"รถเก๋ง", "Sedan"},
	{"เก๋ง", "Sedan"},
	{"รถตู้", "Van"},
	{"ตู้", "Van"},
	{"รถกระบะ", "Pickup"},
	{"กระบะ", "Pickup"},
	{"รถอเนกประสงค์", "MPV/SUV/PPV"},
	{"อเนกประสงค์", "MPV/SUV/PPV"},
	{"sedan", "Sedan"},
	{"hatchback", "Hatchback"},
	{"coupe", "Coupe"},
	{"convertible", "Convertible"},
	{"cargo van", "Cargo Van"},
	{"van", "Van"},
	{"single cab pickup", "Single Cab Pickup"},
	{"extended cab pickup", "Extended Cab Pickup"},
	{"double cab pickup", "Double Cab Pickup"},
	{"pickup", "Pickup"},
	{"mpv/suv/ppv", "MPV/SUV/PPV"},
})

type province struct {
	en    string
	names []string
}

// provinces lists all 77 provinces. The first Thai name is the official one;
// the rest are common aliases.
var provinces = []province{
	{"Bangkok", []string{"กรุงเทพมหานคร", "กรุงเทพฯ", "กรุงเทพ", "กทม"}},
	{"Krabi", []string{"กระบี่"}},
	{"Kanchanaburi", []string{"กาญจนบุรี"}},
	{"Kalasin", []string{"กาฬสินธุ์"}},
	{"Kamphaeng Phet", []string{"กำแพงเพชร"}},
	{"Khon Kaen", []string{"ขอนแก่น"}},
	{"Chanthaburi", []string{"จันทบุรี"}},
	{"Chachoengsao", []string{"ฉะเชิงเทรา"}},
	{"Chonburi", []string{"ชลบุรี"}},
	{"Chai Nat", []string{"ชัยนาท"}},
	{"Chaiyaphum", []string{"ชัยภูมิ"}},
	{"Chumphon", []string{"ชุมพร"}},
	{"Chiang Rai", []string{"เชียงราย"}},
	{"Chiang Mai", []string{"เชียงใหม่"}},
	{"Trang", []string{"ตรัง"}},
	{"Trat", []string{"ตราด"}},
	{"Tak", []string{"ตาก"}},
	{"Nakhon Nayok", []string{"นครนายก"}},
	{"Nakhon Pathom", []string{"นครปฐม"}},
	{"Nakhon Phanom", []string{"นครพนม"}},
	{"Nakhon Ratchasima", []string{"นครราชสีมา", "โคราช"}},
	{"Nakhon Si Thammarat", []string{"นครศรีธรรมราช"}},
	{"Nakhon Sawan", []string{"นครสวรรค์"}},
	{"Nonthaburi", []string{"นนทบุรี"}},
	{"Narathiwat", []string{"นราธิวาส"}},
	{"Nan", []string{"น่าน"}},
	{"Bueng Kan", []string{"บึงกาฬ"}},
	{"Buri Ram", []string{"บุรีรัมย์"}},
	{"Pathum Thani", []string{"ปทุมธานี"}},
	{"Prachuap Khiri Khan", []string{"ประจวบคีรีขันธ์"}},
	{"Prachin Buri", []string{"ปราจีนบุรี"}},
	{"Pattani", []string{"ปัตตานี"}},
	{"Phra Nakhon Si Ayutthaya", []string{"พระนครศรีอยุธยา", "อยุธยา"}},
	{"Phang Nga", []string{"พังงา"}},
	{"Phayao", []string{"พะเยา"}},
	{"Phatthalung", []string{"พัทลุง"}},
	{"Phichit", []string{"พิจิตร"}},
	{"Phitsanulok", []string{"พิษณุโลก"}},
	{"Phetchaburi", []string{"เพชรบุรี"}},
	{"Phetchabun", []string{"เพชรบูรณ์"}},
	{"Phrae", []string{"แพร่"}},
	{"Phuket", []string{"ภูเก็ต"}},
	{"Maha Sarakham", []string{"มหาสารคาม"}},
	{"Mukdahan", []string{"มุกดาหาร"}},
	{"Mae Hong Son", []string{"แม่ฮ่องสอน"}},
	{"Yasothon", []string{"ยโสธร"}},
	{"Yala", []string{"ยะลา"}},
	{"Roi Et", []string{"ร้อยเอ็ด"}},
	{"Ranong", []string{"ระนอง"}},
	{"Rayong", []string{"ระยอง"}},
	{"Ratchaburi", []string{"ราชบุรี"}},
	{"Lopburi", []string{"ลพบุรี"}},
	{"Lampang", []string{"ลำปาง"}},
	{"Lamphun", []string{"ลำพูน"}},
	{"Loei", []string{"เลย"}},
	{"Si Sa Ket", []string{"ศรีสะเกษ"}},
	{"Sakon Nakhon", []string{"สกลนคร"}},
	{"Songkhla", []string{"สงขลา"}},
	{"Satun", []string{"สตูล"}},
	{"Samut Prakan", []string{"สมุทรปราการ"}},
	{"Samut Songkhram", []string{"สมุทรสงคราม"}},
	{"Samut Sakhon", []string{"สมุทรสาคร"}},
	{"Sa Kaeo", []string{"สระแก้ว"}},
	{"Saraburi", []string{"สระบุรี"}},
	{"Sing Buri", []string{"สิงห์บุรี"}},
	{"Sukhothai", []string{"สุโขทัย"}},
	{"Suphan Buri", []string{"สุพรรณบุรี"}},
	{"Surat Thani", []string{"สุราษฎร์ธานี"}},
	{"Surin", []string{"สุรินทร์"}},
	{"Nong Khai", []string{"หนองคาย"}},
	{"Nong Bua Lamphu", []string{"หนองบัวลำภู"}},
	{"Ang Thong", []string{"อ่างทอง"}},
	{"Amnat Charoen", []string{"อำนาจเจริญ"}},
	{"Udon Thani", []string{"อุดรธานี"}},
	{"Uttaradit", []string{"อุตรดิตถ์"}},
	{"Uthai Thani", []string{"อุทัยธานี"}},
	{"Ubon Ratchathani", []string{"อุบลราชธานี"}},
}

// provinceTable maps every Thai name and the English name to the English
// name; provinceThai maps the English name back to the official Thai name.
var provinceTable, provinceThai = buildProvinceTables()

func buildProvinceTables() ([]entry, map[string]string) {
	var entries []entry
	thai := make(map[string]string, len(provinces))
	for _, p := range provinces {
		thai[p.en] = p.names[0]
		for _, n := range p.names {
			entries = append(entries, entry{n, p.en})
		}
		entries = append(entries, entry{p.en, p.en})
	}
	return longestFirst(entries), thai
}

// longestFirst orders entries so a phrase is tried before any shorter phrase
// it may contain (น้ำเงิน before เงิน).
func longestFirst(entries []entry) []entry {
	for i := range entries {
		entries[i].phrase = fold(entries[i].phrase)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len([]rune(entries[i].phrase)) > len([]rune(entries[j].phrase))
	})
	return entries
}
