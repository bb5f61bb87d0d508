package vision

import "math"

// Point is a 2D pixel coordinate. Sub-pixel positions are meaningful after
// corner smoothing and rescaling, so components are floating point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a quadrilateral stored in canonical corner order:
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// OrderCorners canonicalizes four corner points into TL/TR/BR/BL order.
//
// The assignment rule matches the usual document-scanner convention:
//   - top-left has the minimal x+y sum
//   - bottom-right has the maximal x+y sum
//   - top-right has the minimal x-y difference
//   - bottom-left has the maximal x-y difference
//
// The operation is idempotent: ordering an already-ordered quad returns the
// same quad.
func OrderCorners(pts []Point) Quad {
	var q Quad
	if len(pts) < 4 {
		return q
	}

	tl, br, tr, bl := 0, 0, 0, 0
	for i, p := range pts {
		sum := p.X + p.Y
		diff := p.X - p.Y
		if sum < pts[tl].X+pts[tl].Y {
			tl = i
		}
		if sum > pts[br].X+pts[br].Y {
			br = i
		}
		if diff > pts[tr].X-pts[tr].Y {
			tr = i
		}
		if diff < pts[bl].X-pts[bl].Y {
			bl = i
		}
	}

	q[0] = pts[tl]
	q[1] = pts[tr]
	q[2] = pts[br]
	q[3] = pts[bl]
	return q
}

// Area returns the enclosed polygon area via the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// Centroid returns the polygon centroid computed from the first-order
// moments. ok is false when the polygon is degenerate (zero area), in which
// case the vertex average is returned instead.
func (q Quad) Centroid() (cx, cy float64, ok bool) {
	var a, mx, my float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		cross := q[i].X*q[j].Y - q[j].X*q[i].Y
		a += cross
		mx += (q[i].X + q[j].X) * cross
		my += (q[i].Y + q[j].Y) * cross
	}
	if a == 0 {
		for _, p := range q {
			cx += p.X / 4
			cy += p.Y / 4
		}
		return cx, cy, false
	}
	return mx / (3 * a), my / (3 * a), true
}

// BoundingBox returns the axis-aligned bounding box of the quad.
func (q Quad) BoundingBox() (minX, minY, maxX, maxY float64) {
	minX, minY = q[0].X, q[0].Y
	maxX, maxY = q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// EdgeLengths returns the four side lengths in traversal order:
// top (TL->TR), right (TR->BR), bottom (BR->BL), left (BL->TL).
func (q Quad) EdgeLengths() [4]float64 {
	var out [4]float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		dx := q[j].X - q[i].X
		dy := q[j].Y - q[i].Y
		out[i] = math.Hypot(dx, dy)
	}
	return out
}

// Scale multiplies every coordinate by f. Used to map corners found on a
// downsampled frame back to original resolution.
func (q Quad) Scale(f float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * f, Y: p.Y * f}
	}
	return out
}

// Blend returns prev*alpha + next*(1-alpha) per coordinate. Alpha close to
// 1.0 weighs history heavily, which is what corner smoothing wants.
func Blend(prev, next Quad, alpha float64) Quad {
	var out Quad
	for i := range prev {
		out[i] = Point{
			X: alpha*prev[i].X + (1-alpha)*next[i].X,
			Y: alpha*prev[i].Y + (1-alpha)*next[i].Y,
		}
	}
	return out
}

// FillPoly rasterizes the quad into a binary mask of the given size using
// even-odd scanline filling. Pixels outside the image are ignored.
func FillPoly(q Quad, width, height int) [][]bool {
	mask := NewMask(width, height)
	if width == 0 || height == 0 {
		return mask
	}
	for y := 0; y < height; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := 0; i < 4; i++ {
			j := (i + 1) % 4
			y1, y2 := q[i].Y, q[j].Y
			if (y1 <= fy && y2 > fy) || (y2 <= fy && y1 > fy) {
				t := (fy - y1) / (y2 - y1)
				xs = append(xs, q[i].X+t*(q[j].X-q[i].X))
			}
		}
		if len(xs) < 2 {
			continue
		}
		if xs[0] > xs[1] {
			xs[0], xs[1] = xs[1], xs[0]
		}
		// A convex quad crossed by a scanline yields exactly two
		// intersections; extra crossings from degenerate input are
		// handled by sorting the first pair only.
		start := int(math.Ceil(xs[0] - 0.5))
		end := int(math.Floor(xs[len(xs)-1] - 0.5))
		if start < 0 {
			start = 0
		}
		if end >= width {
			end = width - 1
		}
		for x := start; x <= end; x++ {
			mask[y][x] = true
		}
	}
	return mask
}
