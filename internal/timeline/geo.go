package timeline

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Haversine calculates distance between two coordinates in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// RequiredSpeed returns the km/h needed to cover distanceKm between two
// start times. Zero elapsed time yields +Inf.
func RequiredSpeed(distanceKm, elapsedHours float64) float64 {
	if elapsedHours <= 0 {
		return math.Inf(1)
	}
	return distanceKm / elapsedHours
}
