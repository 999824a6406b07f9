package wallet

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"time"
)

// Text is a coupon field that accepts any JSON scalar and keeps its string form.
// Falsy values (null, false, 0, "") decode to the empty string. Numbers are
// rendered in their shortest decimal form.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case bytes.Equal(data, []byte("true")):
		*t = "true"
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(Text(""))}
		}
		if f == 0 {
			*t = ""
			return nil
		}
		*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// CouponData is the caller-supplied coupon a pass is built from.
type CouponData struct {
	ID          Text `json:"id"`
	Title       Text `json:"title"`
	Code        Text `json:"code"`
	Discount    Text `json:"discount"`
	ValidUntil  Text `json:"validUntil"`
	Description Text `json:"description,omitempty"`
}

// Validate checks the fields the workflow cannot do without.
func (c CouponData) Validate() error {
	if c.Title == "" || c.Code == "" || c.ValidUntil == "" {
		return &ValidationError{Message: "Missing required coupon fields: title, code, validUntil"}
	}
	return nil
}

// ValidationError describes a request the service refuses before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Pass record states.
const (
	StatusObjectCreated   = "object_created"
	StatusSaveTokenIssued = "save_token_issued"
)

// PassRecord remembers an issued wallet object so its save URL can be minted again.
type PassRecord struct {
	ID           string
	ClassID      string
	CouponID     string
	Title        string
	Code         string
	Status       string
	CreatedAt    time.Time
	SaveIssuedAt *time.Time
}

// Result is the outcome of an issuance. PassID is set as soon as the provider
// object exists, even when a later step fails.
type Result struct {
	PassID  string
	SaveURL string
	Message string
}
