package googlewallet

// LocalizedString is the provider's translatable text value.
type LocalizedString struct {
	DefaultValue TranslatedString `json:"defaultValue"`
}

// TranslatedString is a single language value.
type TranslatedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// NewLocalized builds an en-US localized string.
func NewLocalized(value string) LocalizedString {
	return LocalizedString{DefaultValue: TranslatedString{Language: "en-US", Value: value}}
}

// Image references a publicly reachable image.
type Image struct {
	SourceURI ImageURI `json:"sourceUri"`
}

// ImageURI is the image location.
type ImageURI struct {
	URI string `json:"uri"`
}

// NewImage wraps a URI.
func NewImage(uri string) *Image {
	return &Image{SourceURI: ImageURI{URI: uri}}
}

// Barcode is rendered on the pass for redemption.
type Barcode struct {
	Type          string `json:"type"`
	Value         string `json:"value"`
	AlternateText string `json:"alternateText,omitempty"`
}

// DateTime is an ISO 8601 timestamp wrapper.
type DateTime struct {
	Date string `json:"date"`
}

// TimeInterval bounds the validity of a pass.
type TimeInterval struct {
	Start *DateTime `json:"start,omitempty"`
	End   *DateTime `json:"end,omitempty"`
}

// TextModuleData is a header/body pair shown on the pass details.
type TextModuleData struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	ID     string `json:"id"`
}

// LinksModuleData holds links shown on the pass details.
type LinksModuleData struct {
	URIs []URI `json:"uris"`
}

// URI is one link.
type URI struct {
	URI         string `json:"uri"`
	Description string `json:"description"`
	ID          string `json:"id"`
}

// Message is a notification-style message attached to the pass.
type Message struct {
	Header    string   `json:"header"`
	Body      string   `json:"body"`
	ActionURI ImageURI `json:"actionUri"`
}

// GenericClass is the shared template of a family of generic passes.
type GenericClass struct {
	ID           string           `json:"id"`
	IssuerName   string           `json:"issuerName,omitempty"`
	ProgramName  string           `json:"programName,omitempty"`
	ReviewStatus string           `json:"reviewStatus,omitempty"`
	CardTitle    *LocalizedString `json:"cardTitle,omitempty"`
	Logo         *Image           `json:"logo,omitempty"`
}

// GenericObject is one issued pass instance.
type GenericObject struct {
	ID                string           `json:"id"`
	ClassID           string           `json:"classId"`
	State             string           `json:"state,omitempty"`
	CardTitle         *LocalizedString `json:"cardTitle,omitempty"`
	Header            *LocalizedString `json:"header,omitempty"`
	Subheader         *LocalizedString `json:"subheader,omitempty"`
	Logo              *Image           `json:"logo,omitempty"`
	HeroImage         *Image           `json:"heroImage,omitempty"`
	Barcode           *Barcode         `json:"barcode,omitempty"`
	ValidTimeInterval *TimeInterval    `json:"validTimeInterval,omitempty"`
	TextModulesData   []TextModuleData `json:"textModulesData,omitempty"`
	LinksModuleData   *LinksModuleData `json:"linksModuleData,omitempty"`
	Messages          []Message        `json:"messages"`
}
