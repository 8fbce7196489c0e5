package geospatial

// PointInRing reports whether (x, y) lies inside ring using the even-odd rule.
// Coordinates are [x, y] pairs; the ring may or may not repeat its first point.
func PointInRing(x, y float64, ring [][2]float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
