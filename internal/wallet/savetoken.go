package wallet

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/placemaking/walletpass/internal/auth"
	"github.com/placemaking/walletpass/internal/config"
)

const (
	saveAudience = "google"
	saveType     = "savetowallet"
)

// SaveTokenMinter signs save-to-wallet JWTs. It never touches the network.
type SaveTokenMinter struct {
	signer   *auth.Signer
	saveBase string
	origins  []string
	now      func() time.Time
}

// NewSaveTokenMinter builds a minter for the configured save endpoint.
func NewSaveTokenMinter(signer *auth.Signer, cfg config.Wallet) *SaveTokenMinter {
	return &SaveTokenMinter{
		signer:   signer,
		saveBase: cfg.SaveURLBase,
		origins:  cfg.Origins,
		now:      time.Now,
	}
}

// Mint returns a signed token referencing the generic object by id.
func (m *SaveTokenMinter) Mint(objectID string) (string, error) {
	claims := jwt.MapClaims{
		"aud": saveAudience,
		"typ": saveType,
		"iat": m.now().Unix(),
		"payload": map[string]any{
			"genericObjects": []map[string]string{{"id": objectID}},
		},
	}
	if len(m.origins) > 0 {
		claims["origins"] = m.origins
	}
	return m.signer.Sign(claims)
}

// SaveURL is the deep link a client opens to add the object to Google Wallet.
func (m *SaveTokenMinter) SaveURL(objectID string) (string, error) {
	token, err := m.Mint(objectID)
	if err != nil {
		return "", err
	}
	return m.saveBase + "/" + token, nil
}
