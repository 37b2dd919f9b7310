package address

import "time"

// Address is the coordinate source for rate quotes. The wider platform owns
// address CRUD; the settlement core only needs a lookup by addressId and the
// latitude/longitude pair. Coordinates are pointers because legacy records
// may lack them, in which case no quote can be computed.
type Address struct {
	AddressID string
	UserID    string
	Name      string
	Line1     string
	City      string
	State     string
	Country   string
	Zip       string
	Phone     string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

// HasCoordinates reports whether the record can feed the rate engine.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}
