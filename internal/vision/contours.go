package vision

import (
	"image"
	"math"
)

// Contour is the ordered outer boundary of a connected edge component,
// together with the raw component pixel count.
type Contour struct {
	Points []image.Point
	Size   int
}

// FindContours extracts the external contours of a binary mask.
//
// Connected components are found by 8-connected flood fill; each component's
// outer boundary is then traced in order (Moore neighborhood walk) so that
// downstream polygon approximation and area computations see a proper closed
// curve rather than an unordered pixel blob. Components smaller than minSize
// pixels are discarded as noise.
func FindContours(mask [][]bool, minSize int) []Contour {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	visited := NewMask(width, height)
	var contours []Contour

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			size := floodFill(mask, visited, x, y, width, height)
			if size < minSize {
				continue
			}
			boundary := traceBoundary(mask, x, y, width, height)
			if len(boundary) >= 4 {
				contours = append(contours, Contour{Points: boundary, Size: size})
			}
		}
	}
	return contours
}

// floodFill marks the 8-connected component containing (startX, startY) as
// visited and returns its pixel count. Stack-based to avoid deep recursion
// on large components.
func floodFill(mask, visited [][]bool, startX, startY, width, height int) int {
	stack := []image.Point{{X: startX, Y: startY}}
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		size++

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return size
}

// mooreNeighbors lists the 8-neighborhood in clockwise order starting west.
var mooreNeighbors = [8]image.Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

// traceBoundary walks the outer boundary of the component whose raster-first
// pixel is (startX, startY), clockwise, and returns the ordered boundary.
// The start pixel is guaranteed to be top-most/left-most by the raster scan
// in FindContours, so the pixel to its west is background.
func traceBoundary(mask [][]bool, startX, startY, width, height int) []image.Point {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && mask[p.Y][p.X]
	}
	dirIndex := func(d image.Point) int {
		for i, n := range mooreNeighbors {
			if n == d {
				return i
			}
		}
		return 0
	}

	start := image.Point{X: startX, Y: startY}
	startBacktrack := image.Point{X: startX - 1, Y: startY}

	boundary := []image.Point{start}
	current := start
	backtrack := startBacktrack

	// Cap iterations so malformed masks cannot loop forever; a boundary can
	// never exceed the pixel count of the mask.
	maxSteps := width*height + 8

	for step := 0; step < maxSteps; step++ {
		startDir := dirIndex(backtrack.Sub(current))
		found := false
		var next image.Point
		prev := backtrack
		for i := 1; i <= 8; i++ {
			dir := (startDir + i) % 8
			cand := current.Add(mooreNeighbors[dir])
			if inside(cand) {
				next = cand
				found = true
				break
			}
			prev = cand
		}
		if !found {
			// Isolated pixel
			break
		}

		// Stop when the walk returns to the start pixel approaching from
		// the original backtrack position.
		if next == start && prev == startBacktrack {
			break
		}

		boundary = append(boundary, next)
		backtrack = prev
		current = next
	}

	return boundary
}

// PolygonArea returns the enclosed area of a closed polygon via the shoelace
// formula.
func PolygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += float64(pts[i].X*pts[j].Y - pts[j].X*pts[i].Y)
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the arc length of the closed contour.
func (c Contour) Perimeter() float64 {
	if len(c.Points) < 2 {
		return 0
	}
	var sum float64
	for i := range c.Points {
		j := (i + 1) % len(c.Points)
		dx := float64(c.Points[j].X - c.Points[i].X)
		dy := float64(c.Points[j].Y - c.Points[i].Y)
		sum += math.Hypot(dx, dy)
	}
	return sum
}

// Area returns the area enclosed by the traced boundary.
func (c Contour) Area() float64 {
	return PolygonArea(c.Points)
}

// Solidity is the ratio of the contour area to its convex hull area.
// Card-like shapes are close to 1.0; ragged blobs score lower.
func (c Contour) Solidity() float64 {
	hull := ConvexHull(c.Points)
	hullArea := PolygonArea(hull)
	if hullArea == 0 {
		return 0
	}
	return c.Area() / hullArea
}

// ConvexHull computes the convex hull of a point set with the Andrew
// monotone chain algorithm. The hull is returned in counter-clockwise order
// (image coordinates, y down).
func ConvexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}

	sorted := append([]image.Point(nil), pts...)
	// Sort by x, then y.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			a, b := sorted[j-1], sorted[j]
			if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
				sorted[j-1], sorted[j] = b, a
			} else {
				break
			}
		}
	}

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var hull []image.Point
	// Lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm. Epsilon is the maximum allowed deviation in pixels; callers
// typically derive it from a fraction of the contour perimeter.
func ApproxPolygon(c Contour, epsilon float64) []Point {
	pts := c.Points
	if len(pts) < 3 {
		out := make([]Point, len(pts))
		for i, p := range pts {
			out[i] = Point{X: float64(p.X), Y: float64(p.Y)}
		}
		return out
	}

	// Split the closed curve at the two mutually farthest anchor points:
	// index 0 and the point farthest from it.
	far := 0
	var farDist float64
	for i, p := range pts {
		dx := float64(p.X - pts[0].X)
		dy := float64(p.Y - pts[0].Y)
		if d := dx*dx + dy*dy; d > farDist {
			farDist = d
			far = i
		}
	}
	if far == 0 {
		return []Point{{X: float64(pts[0].X), Y: float64(pts[0].Y)}}
	}

	first := douglasPeucker(pts[:far+1], epsilon)
	back := append(append([]image.Point(nil), pts[far:]...), pts[0])
	second := douglasPeucker(back, epsilon)

	merged := append(first, second[1:]...)
	// The last point closes the loop back to the first; drop it.
	if len(merged) > 1 {
		merged = merged[:len(merged)-1]
	}

	out := make([]Point, len(merged))
	for i, p := range merged {
		out[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// douglasPeucker recursively simplifies an open polyline.
func douglasPeucker(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}

	a, b := pts[0], pts[len(pts)-1]
	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		if d := pointSegmentDistance(pts[i], a, b); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilon {
		return []image.Point{a, b}
	}

	left := douglasPeucker(pts[:maxIdx+1], epsilon)
	right := douglasPeucker(pts[maxIdx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// pointSegmentDistance returns the perpendicular distance from p to the
// segment ab, falling back to endpoint distance for degenerate segments.
func pointSegmentDistance(p, a, b image.Point) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	px, py := float64(p.X), float64(p.Y)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// ComponentSizes returns the pixel counts of all 8-connected components in
// the mask, largest first ordering not guaranteed.
func ComponentSizes(mask [][]bool) []int {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	visited := NewMask(width, height)
	var sizes []int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] && !visited[y][x] {
				sizes = append(sizes, floodFill(mask, visited, x, y, width, height))
			}
		}
	}
	return sizes
}
