package types

import "strings"

// Clerk webhook event types kept in sync with the users table
const (
	ClerkUserCreated = "user.created"
	ClerkUserUpdated = "user.updated"
	ClerkUserDeleted = "user.deleted"
)

// ClerkWebhookEvent is the envelope Clerk posts for user lifecycle changes
type ClerkWebhookEvent struct {
	Type string        `json:"type" binding:"required"`
	Data ClerkUserData `json:"data"`
}

type ClerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// ClerkUserData is the subset of the Clerk user object the backend mirrors
type ClerkUserData struct {
	ID                    string              `json:"id"`
	FirstName             string              `json:"first_name"`
	LastName              string              `json:"last_name"`
	ImageURL              string              `json:"image_url"`
	PrimaryEmailAddressID string              `json:"primary_email_address_id"`
	EmailAddresses        []ClerkEmailAddress `json:"email_addresses"`
	Deleted               bool                `json:"deleted"`
}

// Identity picks the primary email, falling back to the first address
func (d ClerkUserData) Identity() Identity {
	email := ""
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			email = e.EmailAddress
			break
		}
	}
	if email == "" && len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}
	return Identity{
		ClerkID:  d.ID,
		Email:    email,
		Name:     strings.TrimSpace(d.FirstName + " " + d.LastName),
		ImageURL: d.ImageURL,
	}
}
