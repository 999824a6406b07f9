package wallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/placemaking/walletpass/internal/config"
	"github.com/placemaking/walletpass/internal/googlewallet"
)

const (
	objectStateActive = "active"
	barcodeQRCode     = "qrCode"
	isoMillis         = "2006-01-02T15:04:05.000Z"
)

// Layouts accepted for validUntil, tried in order.
var validUntilLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
}

// ParseValidUntil interprets a coupon expiry date. Dates without a zone are UTC.
func ParseValidUntil(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range validUntilLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ObjectID is the provider id for a pass created at now.
func ObjectID(issuerID string, now time.Time) string {
	return fmt.Sprintf("%s.coupon%d", issuerID, now.UnixMilli())
}

// ClassTemplate is the generic class created when it does not exist yet.
func ClassTemplate(cfg config.Wallet) googlewallet.GenericClass {
	title := googlewallet.NewLocalized(cfg.IssuerName + " Coupon")
	return googlewallet.GenericClass{
		ID:           cfg.ClassID(),
		IssuerName:   cfg.IssuerName,
		ProgramName:  cfg.ProgramName,
		ReviewStatus: "underReview",
		CardTitle:    &title,
		Logo:         googlewallet.NewImage(cfg.LogoURI),
	}
}

// BuildObject projects a coupon onto a generic object. Apart from the id and the
// validity start, both derived from now, the output depends only on its inputs.
func BuildObject(cfg config.Wallet, classID string, coupon CouponData, now time.Time) googlewallet.GenericObject {
	title := orText(coupon.Title, "Coupon")
	cardTitle := googlewallet.NewLocalized(title)
	header := googlewallet.NewLocalized(title)
	subheader := googlewallet.NewLocalized(orText(coupon.Discount, "Discount"))

	interval := &googlewallet.TimeInterval{
		Start: &googlewallet.DateTime{Date: now.UTC().Format(isoMillis)},
	}
	if end, ok := ParseValidUntil(string(coupon.ValidUntil)); ok {
		interval.End = &googlewallet.DateTime{Date: end.Format(isoMillis)}
	}

	modules := []googlewallet.TextModuleData{
		{Header: "Coupon Code", Body: string(coupon.Code), ID: "coupon_code"},
		{Header: "Discount", Body: string(coupon.Discount), ID: "discount"},
		{Header: "Valid Until", Body: string(coupon.ValidUntil), ID: "valid_until"},
	}
	if coupon.Description != "" {
		modules = append(modules, googlewallet.TextModuleData{
			Header: "Description",
			Body:   string(coupon.Description),
			ID:     "description",
		})
	}

	messages := []googlewallet.Message{}
	if coupon.Title != "" {
		messages = append(messages, googlewallet.Message{
			Header:    string(coupon.Title),
			Body:      string(coupon.Description),
			ActionURI: googlewallet.ImageURI{URI: cfg.WebsiteURI},
		})
	}

	return googlewallet.GenericObject{
		ID:        ObjectID(cfg.IssuerID, now),
		ClassID:   classID,
		State:     objectStateActive,
		CardTitle: &cardTitle,
		Header:    &header,
		Subheader: &subheader,
		Logo:      googlewallet.NewImage(cfg.LogoURI),
		HeroImage: googlewallet.NewImage(cfg.HeroImageURI),
		Barcode: &googlewallet.Barcode{
			Type:          barcodeQRCode,
			Value:         string(coupon.Code),
			AlternateText: string(coupon.Code),
		},
		ValidTimeInterval: interval,
		TextModulesData:   modules,
		LinksModuleData: &googlewallet.LinksModuleData{
			URIs: []googlewallet.URI{{URI: cfg.WebsiteURI, Description: cfg.IssuerName, ID: "website"}},
		},
		Messages: messages,
	}
}

func orText(v Text, fallback string) string {
	if v == "" {
		return fallback
	}
	return string(v)
}
