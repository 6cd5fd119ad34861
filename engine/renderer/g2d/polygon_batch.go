package g2d

import (
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const (
	// MaxPolygonVertices is the largest vertex count a 16-bit index can address.
	MaxPolygonVertices     = 32767
	DefaultPolygonVertices = 2000
)

type PolygonSpriteBatchConfig struct {
	// MaxVertices defaults to DefaultPolygonVertices.
	MaxVertices int
	// MaxTriangles defaults to twice MaxVertices.
	MaxTriangles   int
	ViewportWidth  float32
	ViewportHeight float32
	// Shader replaces the built-in shader. The caller keeps ownership.
	Shader *metadata.Shader
}

// PolygonSpriteBatch draws arbitrary triangulated shapes as well as quads.
type PolygonSpriteBatch struct {
	session

	vertices      []float32
	triangles     []uint16
	vertexIndex   int
	triangleIndex int
	// Largest number of triangles submitted by a single flush.
	MaxTrianglesInBatch int
}

var _ Batch = (*PolygonSpriteBatch)(nil)

func NewPolygonSpriteBatch(config *PolygonSpriteBatchConfig, backend renderer.RendererBackend) (*PolygonSpriteBatch, error) {
	maxVertices := config.MaxVertices
	if maxVertices == 0 {
		maxVertices = DefaultPolygonVertices
	}
	if maxVertices < 0 || maxVertices > MaxPolygonVertices {
		return nil, fmt.Errorf("polygon sprite batch: can't have more than %d vertices per batch, got %d: %w", MaxPolygonVertices, maxVertices, core.ErrCapacity)
	}
	maxTriangles := config.MaxTriangles
	if maxTriangles == 0 {
		maxTriangles = maxVertices * 2
	}
	if maxTriangles < 0 {
		return nil, fmt.Errorf("polygon sprite batch: negative triangle count %d: %w", maxTriangles, core.ErrCapacity)
	}

	s, err := newSession("polygon sprite batch", backend, config.Shader, config.ViewportWidth, config.ViewportHeight)
	if err != nil {
		return nil, err
	}
	b := &PolygonSpriteBatch{
		session:   s,
		vertices:  make([]float32, maxVertices*VertexSize),
		triangles: make([]uint16, maxTriangles*3),
	}
	b.session.flush = b.Flush

	b.mesh, err = newSpriteMesh(backend, maxVertices, maxTriangles*3, false)
	if err != nil {
		b.dispose()
		return nil, fmt.Errorf("polygon sprite batch: %w", err)
	}
	core.LogDebug("polygon sprite batch created: %d vertices, %d triangles", maxVertices, maxTriangles)
	return b, nil
}

func (b *PolygonSpriteBatch) Begin() error {
	return b.begin()
}

func (b *PolygonSpriteBatch) End() error {
	return b.end()
}

// Flush uploads the vertex prefix and the triangle indices and renders
// them in one call.
func (b *PolygonSpriteBatch) Flush() error {
	if b.vertexIndex == 0 {
		return nil
	}
	b.RenderCalls++
	b.TotalRenderCalls++
	trianglesInBatch := b.triangleIndex / 3
	if trianglesInBatch > b.MaxTrianglesInBatch {
		b.MaxTrianglesInBatch = trianglesInBatch
	}
	count := b.triangleIndex
	vertices := b.vertices[:b.vertexIndex]
	indices := b.triangles[:b.triangleIndex]
	b.vertexIndex = 0
	b.triangleIndex = 0

	if err := b.backend.MeshSetVertices(b.mesh, vertices); err != nil {
		return fmt.Errorf("polygon sprite batch: %w", err)
	}
	if err := b.backend.MeshSetIndices(b.mesh, indices); err != nil {
		return fmt.Errorf("polygon sprite batch: %w", err)
	}
	return b.submit(count)
}

// Pending returns the buffered vertex floats and triangle indices.
func (b *PolygonSpriteBatch) Pending() (vertexFloats, indices int) {
	return b.vertexIndex, b.triangleIndex
}

// reserve makes room for a shape, flushing on a texture switch or when
// either buffer would overflow. It returns the index of the first vertex
// of the shape.
func (b *PolygonSpriteBatch) reserve(texture *metadata.Texture, vertexFloats, indexCount int) (uint16, error) {
	switched, err := b.checkDraw(texture)
	if err != nil {
		return 0, err
	}
	if !switched && (b.triangleIndex+indexCount > len(b.triangles) || b.vertexIndex+vertexFloats > len(b.vertices)) {
		if err := b.Flush(); err != nil {
			return 0, err
		}
	}
	if vertexFloats > len(b.vertices) || indexCount > len(b.triangles) {
		return 0, fmt.Errorf("polygon sprite batch: shape with %d vertices and %d indices exceeds the batch: %w",
			vertexFloats/VertexSize, indexCount, core.ErrCapacity)
	}
	return uint16(b.vertexIndex / VertexSize), nil
}

// appendTriangles copies triangle indices offset by startVertex.
func (b *PolygonSpriteBatch) appendTriangles(triangles []uint16, startVertex uint16) {
	for _, t := range triangles {
		b.triangles[b.triangleIndex] = t + startVertex
		b.triangleIndex++
	}
}

// reserveQuad makes room for one quad and writes its indices.
func (b *PolygonSpriteBatch) reserveQuad(texture *metadata.Texture) ([]float32, error) {
	startVertex, err := b.reserve(texture, QuadSize, QuadIndices)
	if err != nil {
		return nil, err
	}
	t := b.triangles[b.triangleIndex : b.triangleIndex+QuadIndices]
	t[0] = startVertex
	t[1] = startVertex + 1
	t[2] = startVertex + 2
	t[3] = startVertex + 2
	t[4] = startVertex + 3
	t[5] = startVertex
	b.triangleIndex += QuadIndices

	dst := b.vertices[b.vertexIndex : b.vertexIndex+QuadSize]
	b.vertexIndex += QuadSize
	return dst, nil
}

// DrawPolygonRegion draws the region with its bottom-left corner at (x, y)
// at its pixel size.
func (b *PolygonSpriteBatch) DrawPolygonRegion(region *PolygonRegion, x, y float32) error {
	startVertex, err := b.reserve(region.Region.Texture, len(region.Vertices)/2*VertexSize, len(region.Triangles))
	if err != nil {
		return err
	}
	b.appendTriangles(region.Triangles, startVertex)

	color := b.colorPacked
	textureCoords := region.TextureCoords
	vertices := region.Vertices
	for i := 0; i+1 < len(vertices); i += 2 {
		b.putVertex(vertices[i]+x, vertices[i+1]+y, color, textureCoords[i], textureCoords[i+1])
	}
	return nil
}

// DrawPolygonRegionSized stretches the region to width x height.
func (b *PolygonSpriteBatch) DrawPolygonRegionSized(region *PolygonRegion, x, y, width, height float32) error {
	startVertex, err := b.reserve(region.Region.Texture, len(region.Vertices)/2*VertexSize, len(region.Triangles))
	if err != nil {
		return err
	}
	b.appendTriangles(region.Triangles, startVertex)

	color := b.colorPacked
	textureCoords := region.TextureCoords
	vertices := region.Vertices
	sX := width / float32(region.Region.RegionWidth)
	sY := height / float32(region.Region.RegionHeight)
	for i := 0; i+1 < len(vertices); i += 2 {
		b.putVertex(vertices[i]*sX+x, vertices[i+1]*sY+y, color, textureCoords[i], textureCoords[i+1])
	}
	return nil
}

// DrawPolygonRegionQuad places the region with origin, scale and rotation.
func (b *PolygonSpriteBatch) DrawPolygonRegionQuad(region *PolygonRegion, q Quad) error {
	startVertex, err := b.reserve(region.Region.Texture, len(region.Vertices)/2*VertexSize, len(region.Triangles))
	if err != nil {
		return err
	}
	b.appendTriangles(region.Triangles, startVertex)

	color := b.colorPacked
	textureCoords := region.TextureCoords
	vertices := region.Vertices
	worldOriginX := q.X + q.OriginX
	worldOriginY := q.Y + q.OriginY
	sX := q.Width / float32(region.Region.RegionWidth)
	sY := q.Height / float32(region.Region.RegionHeight)
	cos := math.CosDeg(q.Rotation)
	sin := math.SinDeg(q.Rotation)
	for i := 0; i+1 < len(vertices); i += 2 {
		fx := (vertices[i]*sX - q.OriginX) * q.ScaleX
		fy := (vertices[i+1]*sY - q.OriginY) * q.ScaleY
		b.putVertex(cos*fx-sin*fy+worldOriginX, sin*fx+cos*fy+worldOriginY, color, textureCoords[i], textureCoords[i+1])
	}
	return nil
}

// DrawTriangles copies pre-packed vertices and their triangle indices.
// Indices are relative to the first of the given vertices.
func (b *PolygonSpriteBatch) DrawTriangles(texture *metadata.Texture, vertices []float32, triangles []uint16) error {
	if len(vertices)%VertexSize != 0 {
		return fmt.Errorf("polygon sprite batch: %d floats is not a whole number of vertices: %w", len(vertices), core.ErrInvalidArgument)
	}
	vertexCount := len(vertices) / VertexSize
	for i, t := range triangles {
		if int(t) >= vertexCount {
			return fmt.Errorf("polygon sprite batch: triangle index %d (%d) out of %d vertices: %w", i, t, vertexCount, core.ErrInvalidArgument)
		}
	}
	startVertex, err := b.reserve(texture, len(vertices), len(triangles))
	if err != nil {
		return err
	}
	b.appendTriangles(triangles, startVertex)
	copy(b.vertices[b.vertexIndex:], vertices)
	b.vertexIndex += len(vertices)
	return nil
}

func (b *PolygonSpriteBatch) putVertex(x, y, color, u, v float32) {
	vs := b.vertices[b.vertexIndex : b.vertexIndex+VertexSize]
	vs[0], vs[1], vs[2], vs[3], vs[4] = x, y, color, u, v
	b.vertexIndex += VertexSize
}

func (b *PolygonSpriteBatch) Draw(texture *metadata.Texture, x, y, width, height float32) error {
	dst, err := b.reserveQuad(texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, 0, 1, 1, 0)
	return nil
}

func (b *PolygonSpriteBatch) DrawUV(texture *metadata.Texture, x, y, width, height, u, v, u2, v2 float32) error {
	dst, err := b.reserveQuad(texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, u, v, u2, v2)
	return nil
}

func (b *PolygonSpriteBatch) DrawQuad(texture *metadata.Texture, q Quad, src SourceRect) error {
	dst, err := b.reserveQuad(texture)
	if err != nil {
		return err
	}
	u, v, u2, v2 := src.UV(texture)
	PackQuad(dst, q, b.colorPacked, u, v, u2, v2)
	return nil
}

func (b *PolygonSpriteBatch) DrawRegion(region *TextureRegion, x, y, width, height float32) error {
	dst, err := b.reserveQuad(region.Texture)
	if err != nil {
		return err
	}
	PackRect(dst, x, y, width, height, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

func (b *PolygonSpriteBatch) DrawRegionQuad(region *TextureRegion, q Quad) error {
	dst, err := b.reserveQuad(region.Texture)
	if err != nil {
		return err
	}
	PackQuad(dst, q, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

func (b *PolygonSpriteBatch) DrawRegionRotated90(region *TextureRegion, q Quad, clockwise bool) error {
	dst, err := b.reserveQuad(region.Texture)
	if err != nil {
		return err
	}
	PackRotated90(dst, q, b.colorPacked, region, clockwise)
	return nil
}

func (b *PolygonSpriteBatch) DrawRegionAffine(region *TextureRegion, width, height float32, transform math.Affine2) error {
	dst, err := b.reserveQuad(region.Texture)
	if err != nil {
		return err
	}
	PackAffine(dst, width, height, transform, b.colorPacked, region.U, region.V2, region.U2, region.V)
	return nil
}

// DrawVertices copies pre-packed quads, generating two triangles for each
// and splitting the run across flushes when it does not fit.
func (b *PolygonSpriteBatch) DrawVertices(texture *metadata.Texture, vertices []float32, offset, count int) error {
	if err := checkRange("polygon sprite batch", len(vertices), offset, count, QuadSize); err != nil {
		return err
	}
	if _, err := b.checkDraw(texture); err != nil {
		return err
	}
	maxChunk := min(len(b.vertices)-len(b.vertices)%QuadSize, len(b.triangles)/QuadIndices*QuadSize)
	if count > 0 && maxChunk == 0 {
		return fmt.Errorf("polygon sprite batch: too small to hold a single quad: %w", core.ErrCapacity)
	}

	for count > 0 {
		room := min(len(b.vertices)-b.vertexIndex, (len(b.triangles)-b.triangleIndex)/QuadIndices*QuadSize)
		room -= room % QuadSize
		if room == 0 {
			if err := b.Flush(); err != nil {
				return err
			}
			continue
		}
		chunk := min(room, count)

		vertex := uint16(b.vertexIndex / VertexSize)
		for n := chunk / QuadSize; n > 0; n-- {
			t := b.triangles[b.triangleIndex : b.triangleIndex+QuadIndices]
			t[0] = vertex
			t[1] = vertex + 1
			t[2] = vertex + 2
			t[3] = vertex + 2
			t[4] = vertex + 3
			t[5] = vertex
			b.triangleIndex += QuadIndices
			vertex += 4
		}
		copy(b.vertices[b.vertexIndex:], vertices[offset:offset+chunk])
		b.vertexIndex += chunk
		offset += chunk
		count -= chunk
	}
	return nil
}

func (b *PolygonSpriteBatch) Dispose() {
	b.dispose()
}
