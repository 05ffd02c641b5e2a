// Package geo selects the suppliers a quote request is sent to.
package geo

import (
	"math"

	"quotes/internal/models"
)

// EarthRadiusMiles is the mean Earth radius. All distances in this package
// are in miles.
const EarthRadiusMiles = 3958.8

// Distance returns the great-circle distance between two points in miles.
func Distance(a, b models.Location) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
