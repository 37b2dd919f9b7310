package identity

import "time"

// User is the minimal profile the settlement core needs: an identifier for
// wallet and shipment ownership, and the email Paystack reports funding
// events under. Registration and authentication live upstream.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	CreatedAt time.Time
}
