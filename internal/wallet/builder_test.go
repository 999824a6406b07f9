package wallet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/placemaking/walletpass/internal/config"
)

func testWalletConfig() config.Wallet {
	return config.Wallet{
		IssuerID:            "3388000000000000001",
		ClassSuffix:         "coupon_class",
		ServiceAccountEmail: "issuer@project.iam.gserviceaccount.com",
	}.WithDefaults()
}

func TestBuildObjectTextModules(t *testing.T) {
	cfg := testWalletConfig()
	coupon := CouponData{Title: "20% Off", Code: "SAVE20NOW", ValidUntil: "2024-12-31", Discount: "20%"}

	obj := BuildObject(cfg, cfg.ClassID(), coupon, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	want := []struct{ id, body string }{
		{"coupon_code", "SAVE20NOW"},
		{"discount", "20%"},
		{"valid_until", "2024-12-31"},
	}
	if len(obj.TextModulesData) != len(want) {
		t.Fatalf("expected %d text modules got %d", len(want), len(obj.TextModulesData))
	}
	for i, w := range want {
		got := obj.TextModulesData[i]
		if got.ID != w.id || got.Body != w.body {
			t.Fatalf("module %d: expected %s=%q got %s=%q", i, w.id, w.body, got.ID, got.Body)
		}
		if got.ID == "description" {
			t.Fatalf("unexpected description module")
		}
	}
}

func TestBuildObjectFields(t *testing.T) {
	cfg := testWalletConfig()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	coupon := CouponData{
		Title:       "Free Coffee",
		Code:        "FREECOFFEE",
		ValidUntil:  "January 15, 2025",
		Discount:    "100%",
		Description: "Complimentary coffee",
	}

	obj := BuildObject(cfg, cfg.ClassID(), coupon, now)

	if obj.ID != "3388000000000000001.coupon1717243200000" {
		t.Fatalf("unexpected object id %s", obj.ID)
	}
	if obj.ClassID != "3388000000000000001.coupon_class" {
		t.Fatalf("unexpected class id %s", obj.ClassID)
	}
	if obj.State != "active" {
		t.Fatalf("expected active state got %s", obj.State)
	}
	if obj.Barcode == nil || obj.Barcode.Type != "qrCode" || obj.Barcode.Value != "FREECOFFEE" {
		t.Fatalf("unexpected barcode %+v", obj.Barcode)
	}
	if obj.ValidTimeInterval.Start.Date != "2024-06-01T12:00:00.000Z" {
		t.Fatalf("unexpected start %s", obj.ValidTimeInterval.Start.Date)
	}
	if obj.ValidTimeInterval.End == nil || obj.ValidTimeInterval.End.Date != "2025-01-15T00:00:00.000Z" {
		t.Fatalf("unexpected end %+v", obj.ValidTimeInterval.End)
	}
	last := obj.TextModulesData[len(obj.TextModulesData)-1]
	if last.ID != "description" || last.Body != "Complimentary coffee" {
		t.Fatalf("expected description module got %+v", last)
	}
	if len(obj.Messages) != 1 || obj.Messages[0].Header != "Free Coffee" {
		t.Fatalf("unexpected messages %+v", obj.Messages)
	}
	if obj.LinksModuleData == nil || obj.LinksModuleData.URIs[0].URI != cfg.WebsiteURI {
		t.Fatalf("unexpected links %+v", obj.LinksModuleData)
	}
}

func TestBuildObjectFallbacks(t *testing.T) {
	cfg := testWalletConfig()
	obj := BuildObject(cfg, cfg.ClassID(), CouponData{Code: "X", ValidUntil: "someday"}, time.Now())

	if obj.CardTitle.DefaultValue.Value != "Coupon" {
		t.Fatalf("expected Coupon fallback got %s", obj.CardTitle.DefaultValue.Value)
	}
	if obj.Subheader.DefaultValue.Value != "Discount" {
		t.Fatalf("expected Discount fallback got %s", obj.Subheader.DefaultValue.Value)
	}
	if obj.ValidTimeInterval.End != nil {
		t.Fatalf("expected no end for unparseable date")
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	msgs, ok := decoded["messages"].([]any)
	if !ok || len(msgs) != 0 {
		t.Fatalf("expected empty messages array got %v", decoded["messages"])
	}
}

func TestClassTemplate(t *testing.T) {
	cfg := testWalletConfig()
	class := ClassTemplate(cfg)
	if class.ID != cfg.ClassID() {
		t.Fatalf("unexpected class id %s", class.ID)
	}
	if class.ReviewStatus != "underReview" {
		t.Fatalf("unexpected review status %s", class.ReviewStatus)
	}
	if class.IssuerName != "Digital Placemaking" {
		t.Fatalf("unexpected issuer name %s", class.IssuerName)
	}
}

func TestCouponDataDecoding(t *testing.T) {
	var c CouponData
	body := `{"title":"Deal","code":12345,"validUntil":"2025-01-01","discount":0,"description":null}`
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Code != "12345" {
		t.Fatalf("expected numeric code kept as text got %q", c.Code)
	}
	if c.Discount != "" || c.Description != "" {
		t.Fatalf("expected falsy fields empty got %q %q", c.Discount, c.Description)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := (CouponData{Title: "Deal", Code: "X"}).Validate(); err == nil {
		t.Fatalf("expected validation error without validUntil")
	}
}

func TestCouponDataNumbersUseShortestForm(t *testing.T) {
	var c CouponData
	if err := json.Unmarshal([]byte(`{"discount":20.50,"code":1e2,"id":-3}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Discount != "20.5" {
		t.Fatalf("expected discount 20.5 got %q", c.Discount)
	}
	if c.Code != "100" {
		t.Fatalf("expected code 100 got %q", c.Code)
	}
	if c.ID != "-3" {
		t.Fatalf("expected id -3 got %q", c.ID)
	}
}
