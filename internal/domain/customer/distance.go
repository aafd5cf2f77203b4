package customer

import "github.com/shopspring/decimal"

const distancePlaces = 3

// FormatDistance rounds half away from zero to three places and drops trailing zeros,
// so 2.5 and 2.4999 both render as "2.5".
func FormatDistance(km float64) string {
	return decimal.NewFromFloat(km).Round(distancePlaces).String()
}

// NearbyFromGeoResults keeps strictly positive distances, preserving store order.
func NearbyFromGeoResults(results []GeoResult) []NearbyCustomer {
	nearby := make([]NearbyCustomer, 0, len(results))
	for _, r := range results {
		if r.Customer == nil || !(r.DistanceKm > 0) {
			continue
		}
		nearby = append(nearby, NearbyCustomer{
			Customer: r.Customer,
			Distance: FormatDistance(r.DistanceKm),
		})
	}
	return nearby
}
