package ports

import "context"

// NotificationKind identifies the template of an outbound notification.
type NotificationKind string

const (
	NotificationRegistrationReceived NotificationKind = "registration_received"
	NotificationApproved             NotificationKind = "approved"
)

// Notification is a templated email addressed to a restaurant contact.
type Notification struct {
	Kind         NotificationKind
	RestaurantID int64
	To           string
	Subject      string
	Body         string
}

// NotificationPort dispatches notifications at lifecycle transition points.
type NotificationPort interface {
	Send(ctx context.Context, n Notification) error
}
