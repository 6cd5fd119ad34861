package metadata

/** @brief Primitive topologies accepted by MeshRender. */
type PrimitiveType int

const (
	PrimitiveTriangles PrimitiveType = iota
	PrimitiveLines
	PrimitivePoints
)

func (p PrimitiveType) String() string {
	switch p {
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveLines:
		return "lines"
	case PrimitivePoints:
		return "points"
	}
	return "unknown"
}

/**
 * @brief A GPU vertex/index buffer pair. Vertices are interleaved
 * float32 values laid out as described by Attributes.
 */
type Mesh struct {
	ID          uint32
	Attributes  []ShaderAttribute
	MaxVertices int
	MaxIndices  int
	/** @brief Static meshes are uploaded rarely (caches); dynamic meshes every flush. */
	Static bool
	/** @brief Backend specific data. */
	InternalData interface{}
}

/** @brief Number of floats per vertex. */
func (m *Mesh) VertexSize() int {
	n := 0
	for _, a := range m.Attributes {
		n += a.Type.Floats()
	}
	return n
}
