package notifications

import (
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

// EmailMessage is the wire form of a notification for both the queue and HTTP senders.
type EmailMessage struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	RestaurantID int64     `json:"restaurantId"`
	To           string    `json:"to"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toMessage(id string, n ports.Notification, now time.Time) EmailMessage {
	return EmailMessage{
		ID:           id,
		Kind:         string(n.Kind),
		RestaurantID: n.RestaurantID,
		To:           n.To,
		Subject:      n.Subject,
		Body:         n.Body,
		CreatedAt:    now.UTC(),
	}
}
