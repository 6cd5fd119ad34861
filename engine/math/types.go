package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

/**
 * @brief a 4x4 matrix stored column-major, typically used to represent
 * projection and object transformations. Element (row r, column c) lives
 * at Data[c*4+r], so the translation occupies Data[12], Data[13], Data[14].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

// Column-major indices of the elements of a Mat4.
const (
	M00 = 0
	M10 = 1
	M20 = 2
	M30 = 3
	M01 = 4
	M11 = 5
	M21 = 6
	M31 = 7
	M02 = 8
	M12 = 9
	M22 = 10
	M32 = 11
	M03 = 12
	M13 = 13
	M23 = 14
	M33 = 15
)

/**
 * @brief A 2D affine transform:
 *
 *   x' = M00*x + M01*y + M02
 *   y' = M10*x + M11*y + M12
 */
type Affine2 struct {
	M00, M01, M02 float32
	M10, M11, M12 float32
}

/**
 * @brief Represents the extents of a 2d object.
 */
type Extents2D struct {
	/** @brief The minimum extents of the object. */
	Min Vec2
	/** @brief The maximum extents of the object. */
	Max Vec2
}

/**
 * @brief A colour with components in the [0, 1] range.
 */
type Color struct {
	R, G, B, A float32
}

/**
 * @brief Represents a single vertex in 2D space as laid out in a sprite
 * vertex buffer: position, packed colour and texture coordinate.
 */
type Vertex2D struct {
	/** @brief The position of the vertex */
	Position Vec2
	/** @brief The ABGR colour packed into a float. See Color.ToFloatBits. */
	Color float32
	/** @brief The texture coordinate of the vertex. */
	Texcoord Vec2
}
