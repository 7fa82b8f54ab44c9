package services

import "math"

// EarthRadiusMiles converts a distance in miles to an angular radius
const EarthRadiusMiles = 3959.0

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// CentralAngle returns the angle in radians between two points on a sphere
func CentralAngle(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// bboxSlack widens bounds so rounding never drops a point on the boundary
const bboxSlack = 1e-9

// boundingBox returns lat/lng bounds around a point that contain every point
// within radius. wrapsLng is true when the longitude range cannot be
// expressed as a single interval.
func boundingBox(lat, lng, radius float64) (minLat, maxLat, minLng, maxLng float64, wrapsLng bool) {
	delta := radius*180/math.Pi + bboxSlack
	minLat, maxLat = lat-delta, lat+delta
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180, true
	}

	ratio := math.Sin(radius) / math.Cos(radians(lat))
	if ratio >= 1 {
		return minLat, maxLat, -180, 180, true
	}
	lngDelta := math.Asin(ratio)*180/math.Pi + bboxSlack
	minLng, maxLng = lng-lngDelta, lng+lngDelta
	if minLng < -180 || maxLng > 180 {
		return minLat, maxLat, -180, 180, true
	}
	return minLat, maxLat, minLng, maxLng, false
}
