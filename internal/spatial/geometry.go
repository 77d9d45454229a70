package spatial

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Centroid calculates the arithmetic centroid of a set of points.
// Good enough for the city-scale clusters it is used on.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// RunningMean moves a centroid that already summarizes n points to include p
func RunningMean(center Point, n int, p Point) Point {
	if n <= 0 {
		return p
	}
	w := float64(n)
	return Point{
		Lat: (center.Lat*w + p.Lat) / (w + 1),
		Lon: (center.Lon*w + p.Lon) / (w + 1),
	}
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += Distance(points[i-1], points[i])
	}

	return totalDist
}

// Tortuosity calculates actual path length / straight-line distance.
// 1 means a straight line; returns 1 when the endpoints coincide.
func Tortuosity(points []Point) float64 {
	if len(points) < 2 {
		return 1.0
	}

	straight := Distance(points[0], points[len(points)-1])
	if straight == 0 {
		return 1.0
	}
	return PathLength(points) / straight
}
