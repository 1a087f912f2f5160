package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// FingerprintRegistration builds a deterministic hash of an application payload (excluding the idempotency key).
func FingerprintRegistration(app domain.RestaurantApplication) (string, error) {
	payload, err := json.Marshal(normalizeApplication(app))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeApplication(app domain.RestaurantApplication) domain.RestaurantApplication {
	n := app.Clone()
	n.Profile.Name = strings.TrimSpace(n.Profile.Name)
	n.Contact.Email = strings.ToLower(strings.TrimSpace(n.Contact.Email))
	n.Contact.Phone = NormalizePhone(n.Contact.Phone)
	n.Location.Zip = strings.TrimSpace(n.Location.Zip)
	for i, c := range n.Profile.Cuisines {
		n.Profile.Cuisines[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return n
}
