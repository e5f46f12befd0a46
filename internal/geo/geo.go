// Package geo contains pure geographic computation helpers.
package geo

import "math"

const earthRadiusKm = 6371.0

// roadFactor approximates road distance from straight-line distance:
// city routes are rarely direct, so the air distance is inflated by 40%.
const roadFactor = 1.4

// RoadKm returns the approximate road distance in kilometres between two
// points: great-circle distance scaled by the road factor, rounded to two
// decimals.
func RoadKm(lat1, lng1, lat2, lng2 float64) float64 {
	d := HaversineKm(lat1, lng1, lat2, lng2) * roadFactor
	return math.Round(d*100) / 100
}

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// BearingDeg returns the initial bearing from the first point to the
// second, in compass degrees [0, 360).
func BearingDeg(lat1, lng1, lat2, lng2 float64) float64 {
	dLng := degreesToRadians(lng2 - lng1)
	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	y := math.Sin(dLng) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) -
		math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLng)

	return math.Mod(radiansToDegrees(math.Atan2(y, x))+360, 360)
}

// HeadingDiffDeg returns the absolute angular difference between two
// compass headings, folded into [0, 180].
func HeadingDiffDeg(a, b float64) float64 {
	diff := math.Abs(a - b)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
