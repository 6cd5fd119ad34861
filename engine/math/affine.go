package math

func NewAffine2Identity() Affine2 {
	return Affine2{M00: 1, M11: 1}
}

func NewAffine2Translation(x, y float32) Affine2 {
	return Affine2{M00: 1, M02: x, M11: 1, M12: y}
}

/**
 * @brief Builds the transform that scales, then rotates by degrees
 * counter-clockwise, then translates by (x, y).
 */
func NewAffine2TrnRotScl(x, y, degrees, scaleX, scaleY float32) Affine2 {
	a := Affine2{M02: x, M12: y}
	if degrees == 0 {
		a.M00 = scaleX
		a.M11 = scaleY
		return a
	}
	sin := SinDeg(degrees)
	cos := CosDeg(degrees)
	a.M00 = cos * scaleX
	a.M01 = -sin * scaleY
	a.M10 = sin * scaleX
	a.M11 = cos * scaleY
	return a
}

/**
 * @brief Extracts the 2D affine part of a 4x4 matrix (x/y rows, the x/y
 * columns and the translation column).
 */
func NewAffine2FromMat4(mt Mat4) Affine2 {
	return Affine2{
		M00: mt.Data[M00], M01: mt.Data[M01], M02: mt.Data[M03],
		M10: mt.Data[M10], M11: mt.Data[M11], M12: mt.Data[M13],
	}
}

/**
 * @brief Writes the affine transform into the 2D slots of a 4x4 matrix,
 * leaving the remaining elements as identity.
 */
func (a Affine2) ToMat4() Mat4 {
	out_matrix := NewMat4Identity()
	out_matrix.Data[M00] = a.M00
	out_matrix.Data[M01] = a.M01
	out_matrix.Data[M03] = a.M02
	out_matrix.Data[M10] = a.M10
	out_matrix.Data[M11] = a.M11
	out_matrix.Data[M13] = a.M12
	return out_matrix
}

// Mul returns a × other.
func (a Affine2) Mul(other Affine2) Affine2 {
	return Affine2{
		M00: a.M00*other.M00 + a.M01*other.M10,
		M01: a.M00*other.M01 + a.M01*other.M11,
		M02: a.M00*other.M02 + a.M01*other.M12 + a.M02,
		M10: a.M10*other.M00 + a.M11*other.M10,
		M11: a.M10*other.M01 + a.M11*other.M11,
		M12: a.M10*other.M02 + a.M11*other.M12 + a.M12,
	}
}

func (a Affine2) Det() float32 {
	return a.M00*a.M11 - a.M01*a.M10
}

/**
 * @brief Returns the inverse transform. The second return value is false
 * when the transform is singular.
 */
func (a Affine2) Inverse() (Affine2, bool) {
	det := a.Det()
	if det == 0 {
		return Affine2{}, false
	}
	invDet := 1.0 / det
	return Affine2{
		M00: a.M11 * invDet,
		M01: -a.M01 * invDet,
		M02: (a.M01*a.M12 - a.M11*a.M02) * invDet,
		M10: -a.M10 * invDet,
		M11: a.M00 * invDet,
		M12: (a.M10*a.M02 - a.M00*a.M12) * invDet,
	}, true
}

// Apply transforms the point (x, y).
func (a Affine2) Apply(x, y float32) (float32, float32) {
	return a.M00*x + a.M01*y + a.M02, a.M10*x + a.M11*y + a.M12
}

func (a Affine2) IsIdentity() bool {
	return a == NewAffine2Identity()
}

// IsTranslation reports whether the linear part is the identity.
func (a Affine2) IsTranslation() bool {
	return a.M00 == 1 && a.M11 == 1 && a.M01 == 0 && a.M10 == 0
}
