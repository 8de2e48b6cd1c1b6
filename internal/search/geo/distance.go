// Package geo computes great-circle distances for radius search.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func sinSq(x float64) float64 {
	s := math.Sin(x)
	return s * s
}

func cosSq(x float64) float64 {
	c := math.Cos(x)
	return c * c
}

// centralAngle is 2*asin(sqrt(h)) with h clamped to [0,1]; rounding can push
// h slightly outside that range.
func centralAngle(h float64) float64 {
	return 2 * math.Asin(math.Sqrt(math.Min(1, math.Max(0, h))))
}

// DistanceKm returns the haversine distance in kilometres between two points
// given in degrees. NaN inputs yield NaN.
//
// Past a quarter turn the haversine is evaluated against the antipode of the
// second point and subtracted from half the circumference, which keeps the
// result accurate for nearly antipodal pairs.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)
	cosProduct := math.Cos(phi1) * math.Cos(phi2)

	h := sinSq(dPhi/2) + cosProduct*sinSq(dLambda/2)
	if !(h > 0.5) {
		return EarthRadiusKm * centralAngle(h)
	}

	antipodal := sinSq((phi1+phi2)/2) + cosProduct*cosSq(dLambda/2)
	return EarthRadiusKm * (math.Pi - centralAngle(antipodal))
}

// Within reports whether (lat, lon) lies within radiusKm of the centre.
func Within(centerLat, centerLon, lat, lon, radiusKm float64) bool {
	return DistanceKm(centerLat, centerLon, lat, lon) <= radiusKm
}
