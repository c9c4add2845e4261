package service

import (
	"math"

	"haul/internal/domain"
)

const (
	// perKmRate is the distance fee per kilometre, in Rand.
	perKmRate = 7.5

	earthRadiusKm = 6371.0
)

// QuotePrice computes the total price for a booking: the vehicle category's
// fixed base price plus a distance fee. The fee is zero when either endpoint
// is unresolved; the price is computed once at creation and never revised.
func QuotePrice(vehicle domain.VehicleCategory, pickup, dropoff *domain.Coordinates) float64 {
	price := vehicle.BasePrice()
	if pickup == nil || dropoff == nil {
		return price
	}

	km := haversineKm(*pickup, *dropoff)
	fee := km * perKmRate

	// Round to the nearest cent.
	return math.Round((price+fee)*100) / 100
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
