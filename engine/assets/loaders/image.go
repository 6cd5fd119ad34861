package loaders

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// Image extensions understood by the registered decoders.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

type ImageLoader struct{}

// Load decodes the file at path into 4-channel RGBA pixels. params may be
// nil or *metadata.ImageResourceParams.
func (il *ImageLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	flipY := false
	if params != nil {
		typedParams, ok := params.(*metadata.ImageResourceParams)
		if !ok {
			return nil, fmt.Errorf("image loader: unexpected params type %T", params)
		}
		flipY = typedParams.FlipY
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image '%s': %w", path, err)
	}

	data := DecodePixels(img, flipY)
	if data.Width == 0 || data.Height == 0 {
		return nil, fmt.Errorf("image '%s' (%s) has no pixels", path, format)
	}

	return &metadata.Resource{
		FullPath: path,
		Type:     metadata.ResourceTypeImage,
		Data:     data,
	}, nil
}

func (il *ImageLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("image loader: nil resource")
	}
	if data, ok := resource.Data.(*metadata.ImageResourceData); ok {
		data.Pixels = nil
	}
	resource.Data = nil
	resource.FullPath = ""
	return nil
}

// DecodePixels converts any image into tightly packed RGBA rows, top row
// first unless flipY is set.
func DecodePixels(img image.Image, flipY bool) *metadata.ImageResourceData {
	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	w, h := bounds.Dx(), bounds.Dy()
	rowSize := w * 4
	pixels := make([]uint8, rowSize*h)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+rowSize]
		dstRow := y
		if flipY {
			dstRow = h - 1 - y
		}
		copy(pixels[dstRow*rowSize:], src)
	}

	hasTransparency := false
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] < 255 {
			hasTransparency = true
			break
		}
	}

	return &metadata.ImageResourceData{
		ChannelCount:    4,
		Width:           uint32(w),
		Height:          uint32(h),
		Pixels:          pixels,
		HasTransparency: hasTransparency,
	}
}
