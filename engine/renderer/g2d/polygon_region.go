package g2d

// PolygonRegion is a triangulated shape cut out of a texture region.
// Vertices are x,y pairs in the region's pixel space with y pointing up.
type PolygonRegion struct {
	Region        *TextureRegion
	Vertices      []float32
	Triangles     []uint16
	TextureCoords []float32
}

// NewPolygonRegion derives the texture coordinates of every vertex from
// its position inside the region.
func NewPolygonRegion(region *TextureRegion, vertices []float32, triangles []uint16) *PolygonRegion {
	p := &PolygonRegion{
		Region:        region,
		Vertices:      vertices,
		Triangles:     triangles,
		TextureCoords: make([]float32, len(vertices)),
	}

	u := region.U
	v := region.V
	uvWidth := region.U2 - u
	uvHeight := region.V2 - v
	width := float32(region.RegionWidth)
	height := float32(region.RegionHeight)
	for i := 0; i+1 < len(vertices); i += 2 {
		p.TextureCoords[i] = u + uvWidth*(vertices[i]/width)
		p.TextureCoords[i+1] = v + uvHeight*(1-vertices[i+1]/height)
	}
	return p
}

// FanTriangles triangulates a convex polygon of vertexCount vertices as a
// fan around vertex 0.
func FanTriangles(vertexCount int) []uint16 {
	if vertexCount < 3 {
		return nil
	}
	triangles := make([]uint16, 0, (vertexCount-2)*3)
	for i := 1; i < vertexCount-1; i++ {
		triangles = append(triangles, 0, uint16(i), uint16(i+1))
	}
	return triangles
}
