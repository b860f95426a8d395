package valuation

import "strings"

// premiumBrands is matched by substring against the normalized brand.
var premiumBrands = []string{
	"bmw", "mercedes", "mercedes-benz", "audi", "lexus", "porsche",
	"infiniti", "jaguar", "land rover", "volvo", "cadillac", "genesis",
	"bentley", "maserati", "ferrari", "lamborghini", "rolls-royce",
}

// brandClassMultipliers is matched by exact normalized brand. It is
// independent of premiumBrands and the two may disagree.
var brandClassMultipliers = map[string]float64{
	// economy
	"lada": 0.6, "vaz": 0.6, "datsun": 0.6,
	// compact
	"hyundai": 0.9, "kia": 0.9, "skoda": 0.9,
	"renault": 0.9, "nissan": 0.9, "mazda": 0.9,
	"honda": 0.9, "ford": 0.9, "chevrolet": 0.9,
	"opel": 0.9, "peugeot": 0.9, "citroen": 0.9,
	"volkswagen": 0.9, "mitsubishi": 0.9, "suzuki": 0.9,
	// midsize
	"toyota": 1.25, "subaru": 1.25,
	// premium
	"bmw": 1.75, "mercedes": 2.0, "mercedes-benz": 2.0,
	"audi": 1.75, "lexus": 2.0, "volvo": 1.5,
	"infiniti": 1.5, "genesis": 2.0,
	// luxury
	"porsche": 3.0, "jaguar": 2.5, "land rover": 2.5,
	"bentley": 5.0, "maserati": 4.0, "ferrari": 8.0,
	"lamborghini": 8.0, "rolls-royce": 6.0,
}

func normalizeBrand(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

// IsPremiumBrand reports whether brand contains any premium marque.
func IsPremiumBrand(brand string) bool {
	b := normalizeBrand(brand)
	for _, pb := range premiumBrands {
		if strings.Contains(b, pb) {
			return true
		}
	}
	return false
}

// BrandMultiplier returns the brand-class factor for brand, or 1.0 when the
// normalized brand has no exact entry. "LADA (ВАЗ)" therefore gets 1.0, not 0.6.
func BrandMultiplier(brand string) float64 {
	if m, ok := brandClassMultipliers[normalizeBrand(brand)]; ok {
		return m
	}
	return 1.0
}
