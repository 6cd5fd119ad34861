package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

const testFont = `info face="Test" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=18 base=14 scaleW=64 scaleH=32 pages=1 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="test_0.png"
chars count=3
char id=32   x=0     y=0     width=0     height=0     xoffset=0     yoffset=0     xadvance=4     page=0  chnl=15
char id=65   x=0     y=0     width=8     height=10    xoffset=0     yoffset=4     xadvance=9     page=0  chnl=15
char id=66   x=8     y=0     width=8     height=10    xoffset=1     yoffset=4     xadvance=9     page=0  chnl=15
kernings count=1
kerning first=65  second=66  amount=-1
`

const testShaderConfig = `name = "Shader.Tint"
vertex = "tint.vert"
fragment = "tint.frag"

[[uniforms]]
name = "u_projTrans"
type = "mat4"

[[uniforms]]
name = "u_texture"
type = "sampler2D"
`

func writePNG(t *testing.T, path string, width, height int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeTestAssets lays out a small asset tree: a 4x2 opaque texture, a
// bitmap font with its page and a shader config.
func writeTestAssets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "textures", "crate.png"), 4, 2, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	writePNG(t, filepath.Join(root, "fonts", "test_0.png"), 4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 128})
	writeFile(t, filepath.Join(root, "fonts", "test.fnt"), testFont)
	writeFile(t, filepath.Join(root, "shaders", "tint.shadercfg"), testShaderConfig)
	writeFile(t, filepath.Join(root, "shaders", "tint.vert"), "void main() {}\n")
	writeFile(t, filepath.Join(root, "shaders", "tint.frag"), "void main() {}\n")
	return root
}

func newTestAssetManager(t *testing.T, root string, bus *core.EventBus) *assets.AssetManager {
	t.Helper()
	am, err := assets.NewAssetManager(root, bus)
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(false); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { am.Shutdown() })
	return am
}

func newTestJobSystem(t *testing.T, workers int) *JobSystem {
	t.Helper()
	js, err := NewJobSystem(&JobSystemConfig{WorkerCount: workers, QueueSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { js.Shutdown() })
	return js
}

func newTestTextureSystem(t *testing.T, backend *recorder.Backend, am *assets.AssetManager, js *JobSystem, bus *core.EventBus) *TextureSystem {
	t.Helper()
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 8}, backend, am, js, bus)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func countOps(b *recorder.Backend, op recorder.Op) int {
	return len(b.Filter(op))
}
