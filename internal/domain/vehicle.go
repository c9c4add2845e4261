package domain

// VehicleCategory represents the class of vehicle requested for a booking.
type VehicleCategory string

const (
	VehicleVan          VehicleCategory = "VAN"
	VehicleBakkie       VehicleCategory = "BAKKIE"
	VehicleMiniTruck    VehicleCategory = "MINI_TRUCK"
	VehicleFullTruck    VehicleCategory = "FULL_TRUCK"
	VehiclePassengerVan VehicleCategory = "PASSENGER_VAN"
)

// vehicleBasePrices holds the fixed base price per category, in Rand.
var vehicleBasePrices = map[VehicleCategory]float64{
	VehicleVan:          100,
	VehicleBakkie:       150,
	VehicleMiniTruck:    250,
	VehicleFullTruck:    400,
	VehiclePassengerVan: 120,
}

// ParseVehicleCategory validates a category string at the boundary.
func ParseVehicleCategory(s string) (VehicleCategory, bool) {
	if _, ok := vehicleBasePrices[VehicleCategory(s)]; ok {
		return VehicleCategory(s), true
	}
	return "", false
}

// BasePrice returns the fixed base price for the category.
// Returns 0 for an unknown category; callers validate first.
func (v VehicleCategory) BasePrice() float64 {
	return vehicleBasePrices[v]
}
