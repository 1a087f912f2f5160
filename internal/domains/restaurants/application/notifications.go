package application

import (
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

// RegistrationReceivedNotification builds the email sent once an application is stored.
func RegistrationReceivedNotification(r *domain.Restaurant) ports.Notification {
	return ports.Notification{
		Kind:         ports.NotificationRegistrationReceived,
		RestaurantID: r.ID,
		To:           r.Email(),
		Subject:      fmt.Sprintf("We received your application %s", r.ApplicationRef()),
		Body: fmt.Sprintf(
			"Hi %s,\n\nThanks for registering %s. Your application reference is %s.\n"+
				"Our team will review it and email you once a decision is made.\n",
			r.Application.Contact.ContactPerson, r.Name(), r.ApplicationRef(),
		),
	}
}

// ApprovalNotification builds the email that delivers login credentials after approval.
func ApprovalNotification(r *domain.Restaurant, creds domain.Credentials) ports.Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n%s has been approved and can now sign in to the restaurant dashboard.\n\n",
		r.Application.Contact.ContactPerson, r.Name())
	fmt.Fprintf(&b, "Username: %s\nTemporary password: %s\n", creds.Username, creds.TemporaryPassword)
	if !creds.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "The temporary password expires on %s.\n", creds.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return ports.Notification{
		Kind:         ports.NotificationApproved,
		RestaurantID: r.ID,
		To:           r.Email(),
		Subject:      fmt.Sprintf("%s is approved", r.Name()),
		Body:         b.String(),
	}
}
