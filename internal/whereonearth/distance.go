package whereonearth

import "math"

// EarthRadiusKm is the mean radius used for all scoring.
const EarthRadiusKm = 6367.4445

// DistanceKm returns the great-circle distance between two points given in
// degrees, using the spherical law of cosines. Argument order is
// (latitude, longitude) for both points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180

	phi1 := lat1 * rad
	phi2 := lat2 * rad
	dLambda := (lon1 - lon2) * rad

	cos := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	// Rounding can push the argument just outside [-1, 1].
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * EarthRadiusKm
}
