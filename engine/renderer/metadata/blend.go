package metadata

/** @brief Blend factors, numerically identical to the GL enums. */
type BlendFactor int32

const (
	BlendZero             BlendFactor = 0
	BlendOne              BlendFactor = 1
	BlendSrcColor         BlendFactor = 0x0300
	BlendOneMinusSrcColor BlendFactor = 0x0301
	BlendSrcAlpha         BlendFactor = 0x0302
	BlendOneMinusSrcAlpha BlendFactor = 0x0303
	BlendDstAlpha         BlendFactor = 0x0304
	BlendOneMinusDstAlpha BlendFactor = 0x0305
	BlendDstColor         BlendFactor = 0x0306
	BlendOneMinusDstColor BlendFactor = 0x0307
)

/** @brief Separate colour and alpha blend factors. */
type BlendState struct {
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

/** @brief Straight alpha blending, the default for sprite batches. */
var DefaultBlendState = BlendState{
	SrcColor: BlendSrcAlpha,
	DstColor: BlendOneMinusSrcAlpha,
	SrcAlpha: BlendSrcAlpha,
	DstAlpha: BlendOneMinusSrcAlpha,
}
