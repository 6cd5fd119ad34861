package g2d

import (
	stdmath "math"
	"testing"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

func newTexture(t *testing.T, b *recorder.Backend, name string, width, height uint32) *metadata.Texture {
	t.Helper()
	tex := &metadata.Texture{Name: name, Width: width, Height: height, ChannelCount: 4}
	if err := b.TextureCreate(nil, tex); err != nil {
		t.Fatalf("TextureCreate(%s): %v", name, err)
	}
	return tex
}

func near(a, b float32) bool {
	return stdmath.Abs(float64(a-b)) <= 1e-4
}

func quadOf(xs ...float32) []float32 {
	out := make([]float32, 0, len(xs)/2*VertexSize)
	for i := 0; i+1 < len(xs); i += 2 {
		out = append(out, xs[i], xs[i+1], 0, 0, 0)
	}
	return out
}

// numberedQuads returns n quads whose floats count up from 1, so copies
// can be told apart.
func numberedQuads(n int) []float32 {
	out := make([]float32, n*QuadSize)
	for i := range out {
		out[i] = float32(i + 1)
	}
	return out
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
