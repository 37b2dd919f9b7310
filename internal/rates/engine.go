// Package rates computes distance-based price quotes for shipments.
//
// All monetary amounts produced here are in kobo (minor currency unit). The
// fare formula is evaluated in naira and converted once at the end, so the
// quote is always a whole number of kobo.
package rates

import (
	"errors"
	"math"
)

const (
	earthRadiusKm = 6371

	// BaseFareNaira and RatePerKmNaira define the fare formula
	// price = base + distance * rate, in naira.
	BaseFareNaira  = 1000
	RatePerKmNaira = 200
)

// ErrInvalidCoordinates indicates a missing or out-of-range coordinate pair.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the pair lies within the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Quote is a frozen price/distance pair. PriceKobo is what the wallet is
// debited at booking time; FormattedPrice is the same amount in naira for
// display.
type Quote struct {
	PriceKobo      int64
	DistanceKm     float64
	FormattedPrice float64
}

// ForRoute computes the quote for a pickup/delivery pair. Identical
// coordinates are a valid route with distance zero and the base fare only.
func ForRoute(pickup, delivery Coordinates) (Quote, error) {
	if !pickup.Valid() || !delivery.Valid() {
		return Quote{}, ErrInvalidCoordinates
	}

	distance := distanceKm(pickup, delivery)
	priceKobo := int64(math.Round((BaseFareNaira + distance*RatePerKmNaira) * 100))

	return Quote{
		PriceKobo:      priceKobo,
		DistanceKm:     distance,
		FormattedPrice: float64(priceKobo) / 100,
	}, nil
}

// distanceKm applies the haversine formula and rounds to two decimal places.
func distanceKm(a, b Coordinates) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusKm*c*100) / 100
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
