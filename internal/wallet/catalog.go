package wallet

// CatalogCoupon is a demo coupon offered to clients.
type CatalogCoupon struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Discount    string `json:"discount"`
	ValidUntil  string `json:"validUntil"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var sampleCoupons = []CatalogCoupon{
	{
		ID:          "save20",
		Title:       "20% Off Your Next Purchase",
		Code:        "SAVE20NOW",
		Discount:    "20%",
		ValidUntil:  "December 31, 2024",
		Icon:        "%",
		Description: "Get 20% off on any purchase over $50",
	},
	{
		ID:          "freecoffee",
		Title:       "Free Coffee",
		Code:        "FREECOFFEE",
		Discount:    "100%",
		ValidUntil:  "January 15, 2025",
		Icon:        "☕",
		Description: "Complimentary coffee with any pastry purchase",
	},
	{
		ID:          "lunchdeal",
		Title:       "Lunch Special",
		Code:        "LUNCH50",
		Discount:    "50%",
		ValidUntil:  "February 28, 2025",
		Icon:        "🍽️",
		Description: "50% off lunch items Monday-Friday",
	},
}

// Catalog returns a copy of the sample coupons.
func Catalog() []CatalogCoupon {
	out := make([]CatalogCoupon, len(sampleCoupons))
	copy(out, sampleCoupons)
	return out
}
