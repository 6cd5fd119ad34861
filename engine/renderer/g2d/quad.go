package g2d

import (
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const (
	// VertexSize is the number of floats per vertex: x, y, packed colour, u, v.
	VertexSize = 5
	// QuadSize is the number of floats per quad.
	QuadSize = 4 * VertexSize
	// QuadIndices is the number of indices per quad.
	QuadIndices = 6
)

// Offsets of the vertex attributes inside a packed quad. Corner 1 is
// bottom-left, 2 top-left, 3 top-right and 4 bottom-right.
const (
	X1 = iota
	Y1
	C1
	U1
	V1
	X2
	Y2
	C2
	U2
	V2
	X3
	Y3
	C3
	U3
	V3
	X4
	Y4
	C4
	U4
	V4
)

// Quad places a rectangle: position of its bottom-left corner, size,
// the origin used for scaling and rotation (relative to the bottom-left
// corner), scale and counter-clockwise rotation in degrees.
type Quad struct {
	X, Y             float32
	OriginX, OriginY float32
	Width, Height    float32
	ScaleX, ScaleY   float32
	Rotation         float32
}

// NewQuad returns an unscaled, unrotated quad.
func NewQuad(x, y, width, height float32) Quad {
	return Quad{X: x, Y: y, Width: width, Height: height, ScaleX: 1, ScaleY: 1}
}

// SourceRect selects texels in pixel coordinates, y pointing down from
// the top of the texture.
type SourceRect struct {
	X, Y, Width, Height int
	FlipX, FlipY        bool
}

// UV converts the rectangle to texture coordinates ordered for PackQuad.
func (s SourceRect) UV(texture *metadata.Texture) (u, v, u2, v2 float32) {
	invW := 1 / float32(texture.Width)
	invH := 1 / float32(texture.Height)
	u = float32(s.X) * invW
	v = float32(s.Y+s.Height) * invH
	u2 = float32(s.X+s.Width) * invW
	v2 = float32(s.Y) * invH
	if s.FlipX {
		u, u2 = u2, u
	}
	if s.FlipY {
		v, v2 = v2, v
	}
	return u, v, u2, v2
}

// FullSource covers the whole texture.
func FullSource(texture *metadata.Texture) SourceRect {
	return SourceRect{Width: int(texture.Width), Height: int(texture.Height)}
}

// PackRect writes an axis-aligned quad. Corners get (u,v), (u,v2),
// (u2,v2), (u2,v) from bottom-left clockwise.
func PackRect(dst []float32, x, y, width, height, color, u, v, u2, v2 float32) {
	fx2 := x + width
	fy2 := y + height

	dst[X1], dst[Y1], dst[C1], dst[U1], dst[V1] = x, y, color, u, v
	dst[X2], dst[Y2], dst[C2], dst[U2], dst[V2] = x, fy2, color, u, v2
	dst[X3], dst[Y3], dst[C3], dst[U3], dst[V3] = fx2, fy2, color, u2, v2
	dst[X4], dst[Y4], dst[C4], dst[U4], dst[V4] = fx2, y, color, u2, v
}

// PackQuad writes q with the given colour and texture coordinates.
// Rotation uses three rotated corners and completes the fourth as a
// parallelogram.
func PackQuad(dst []float32, q Quad, color, u, v, u2, v2 float32) {
	uvs := [8]float32{u, v, u, v2, u2, v2, u2, v}
	if q.Rotation == 0 {
		packCorners(dst, q, false, 1, 0, color, &uvs)
		return
	}
	packCorners(dst, q, true, math.CosDeg(q.Rotation), math.SinDeg(q.Rotation), color, &uvs)
}

// PackRotated90 writes a region stored rotated by 90 degrees in its
// atlas, turning the texture coordinates back clockwise or
// counter-clockwise.
func PackRotated90(dst []float32, q Quad, color float32, region *TextureRegion, clockwise bool) {
	var uvs [8]float32
	if clockwise {
		uvs = [8]float32{
			region.U2, region.V2,
			region.U, region.V2,
			region.U, region.V,
			region.U2, region.V,
		}
	} else {
		uvs = [8]float32{
			region.U, region.V,
			region.U2, region.V,
			region.U2, region.V2,
			region.U, region.V2,
		}
	}
	if q.Rotation == 0 {
		packCorners(dst, q, false, 1, 0, color, &uvs)
		return
	}
	packCorners(dst, q, true, math.CosDeg(q.Rotation), math.SinDeg(q.Rotation), color, &uvs)
}

// PackAffine writes a width x height rectangle placed by transform.
func PackAffine(dst []float32, width, height float32, transform math.Affine2, color, u, v, u2, v2 float32) {
	x1 := transform.M02
	y1 := transform.M12
	x2 := transform.M01*height + transform.M02
	y2 := transform.M11*height + transform.M12
	x3 := transform.M00*width + transform.M01*height + transform.M02
	y3 := transform.M10*width + transform.M11*height + transform.M12
	x4 := transform.M00*width + transform.M02
	y4 := transform.M10*width + transform.M12

	dst[X1], dst[Y1], dst[C1], dst[U1], dst[V1] = x1, y1, color, u, v
	dst[X2], dst[Y2], dst[C2], dst[U2], dst[V2] = x2, y2, color, u, v2
	dst[X3], dst[Y3], dst[C3], dst[U3], dst[V3] = x3, y3, color, u2, v2
	dst[X4], dst[Y4], dst[C4], dst[U4], dst[V4] = x4, y4, color, u2, v
}

// packQuadRotated always takes the rotation path with the given cos and sin.
func packQuadRotated(dst []float32, q Quad, cos, sin, color, u, v, u2, v2 float32) {
	uvs := [8]float32{u, v, u, v2, u2, v2, u2, v}
	packCorners(dst, q, true, cos, sin, color, &uvs)
}

func packCorners(dst []float32, q Quad, rotate bool, cos, sin, color float32, uvs *[8]float32) {
	// bottom left and top right corner points relative to origin
	worldOriginX := q.X + q.OriginX
	worldOriginY := q.Y + q.OriginY
	fx := -q.OriginX
	fy := -q.OriginY
	fx2 := q.Width - q.OriginX
	fy2 := q.Height - q.OriginY

	if q.ScaleX != 1 || q.ScaleY != 1 {
		fx *= q.ScaleX
		fy *= q.ScaleY
		fx2 *= q.ScaleX
		fy2 *= q.ScaleY
	}

	var x1, y1, x2, y2, x3, y3, x4, y4 float32
	if rotate {
		x1 = cos*fx - sin*fy
		y1 = sin*fx + cos*fy

		x2 = cos*fx - sin*fy2
		y2 = sin*fx + cos*fy2

		x3 = cos*fx2 - sin*fy2
		y3 = sin*fx2 + cos*fy2

		x4 = x1 + (x3 - x2)
		y4 = y3 - (y2 - y1)
	} else {
		x1, y1 = fx, fy
		x2, y2 = fx, fy2
		x3, y3 = fx2, fy2
		x4, y4 = fx2, fy
	}

	x1 += worldOriginX
	y1 += worldOriginY
	x2 += worldOriginX
	y2 += worldOriginY
	x3 += worldOriginX
	y3 += worldOriginY
	x4 += worldOriginX
	y4 += worldOriginY

	dst[X1], dst[Y1], dst[C1], dst[U1], dst[V1] = x1, y1, color, uvs[0], uvs[1]
	dst[X2], dst[Y2], dst[C2], dst[U2], dst[V2] = x2, y2, color, uvs[2], uvs[3]
	dst[X3], dst[Y3], dst[C3], dst[U3], dst[V3] = x3, y3, color, uvs[4], uvs[5]
	dst[X4], dst[Y4], dst[C4], dst[U4], dst[V4] = x4, y4, color, uvs[6], uvs[7]
}

// transformPositions applies t to the position of every vertex in vertices.
func transformPositions(vertices []float32, t math.Affine2) {
	for i := 0; i+1 < len(vertices); i += VertexSize {
		vertices[i], vertices[i+1] = t.Apply(vertices[i], vertices[i+1])
	}
}

// quadIndices fills indices with the two-triangle pattern for consecutive quads.
func quadIndices(indices []uint16) {
	j := uint16(0)
	for i := 0; i+QuadIndices <= len(indices); i += QuadIndices {
		indices[i] = j
		indices[i+1] = j + 1
		indices[i+2] = j + 2
		indices[i+3] = j + 2
		indices[i+4] = j + 3
		indices[i+5] = j
		j += 4
	}
}
