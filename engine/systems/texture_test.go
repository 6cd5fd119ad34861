package systems

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

func TestTextureSystemDefaultTexture(t *testing.T) {
	backend := recorder.New()
	ts := newTestTextureSystem(t, backend, nil, nil, nil)

	def := ts.GetDefaultTexture()
	if def == nil || def.Width != defaultTextureDimension || def.InternalData == nil {
		t.Fatalf("default texture not created: %+v", def)
	}
	got, err := ts.Acquire(metadata.DEFAULT_TEXTURE_NAME, false)
	if err != nil || got != def {
		t.Fatalf("Acquire(default) = %v, %v", got, err)
	}
	if err := ts.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if countOps(backend, recorder.OpTextureDestroy) != 1 {
		t.Fatalf("default texture not destroyed on shutdown")
	}
}

func TestTextureSystemCreateFromPixels(t *testing.T) {
	backend := recorder.New()
	ts := newTestTextureSystem(t, backend, nil, nil, nil)

	pixels := make([]uint8, 2*2*4)
	for i := range pixels {
		pixels[i] = 255
	}
	pixels[3] = 10

	tex, err := ts.CreateFromPixels("", 2, 2, pixels, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(tex.Name, "__texture_") {
		t.Errorf("generated name = %q", tex.Name)
	}
	if tex.Flags&metadata.TextureFlagIsWrapped == 0 || !tex.HasTransparency() {
		t.Errorf("unexpected flags %b", tex.Flags)
	}
	if got, ok := ts.Get(tex.Name); !ok || got != tex {
		t.Errorf("Get(%q) = %v, %v", tex.Name, got, ok)
	}

	if _, err := ts.CreateFromPixels("bad", 2, 2, pixels[:4], false); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("short pixel data: got %v", err)
	}
	if _, err := ts.CreateFromPixels(tex.Name, 2, 2, pixels, false); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("duplicate name: got %v", err)
	}
	if err := ts.Reload(tex.Name); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("reload of wrapped texture: got %v", err)
	}

	if err := ts.Release(tex.Name); err != nil {
		t.Fatal(err)
	}
	if _, ok := ts.Get(tex.Name); ok {
		t.Errorf("auto-released texture still registered")
	}
}

func TestTextureSystemAcquireRelease(t *testing.T) {
	backend := recorder.New()
	am := newTestAssetManager(t, writeTestAssets(t), nil)
	ts := newTestTextureSystem(t, backend, am, nil, nil)

	a, err := ts.Acquire("textures/crate", true)
	if err != nil {
		t.Fatal(err)
	}
	if a.Width != 4 || a.Height != 2 || a.HasTransparency() {
		t.Fatalf("unexpected texture %+v", a)
	}
	b, err := ts.Acquire("textures/crate", true)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("second acquire must return the same texture")
	}
	if ts.ReferenceCount("textures/crate") != 2 {
		t.Fatalf("reference count = %d", ts.ReferenceCount("textures/crate"))
	}
	// default + crate
	if n := countOps(backend, recorder.OpTextureCreate); n != 2 {
		t.Fatalf("expected 2 texture uploads, got %d", n)
	}

	if err := ts.Release("textures/crate"); err != nil {
		t.Fatal(err)
	}
	if countOps(backend, recorder.OpTextureDestroy) != 0 {
		t.Fatalf("texture destroyed while still referenced")
	}
	if err := ts.Release("textures/crate"); err != nil {
		t.Fatal(err)
	}
	if countOps(backend, recorder.OpTextureDestroy) != 1 {
		t.Fatalf("texture not destroyed at zero references")
	}
	if err := ts.Release("textures/crate"); !errors.Is(err, ErrTextureNotFound) {
		t.Fatalf("release of unknown texture: got %v", err)
	}

	if _, err := ts.Acquire("textures/missing", false); !errors.Is(err, assets.ErrAssetNotFound) {
		t.Fatalf("missing texture: got %v", err)
	}
}

func TestTextureSystemCapacity(t *testing.T) {
	backend := recorder.New()
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1}, backend, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	pixels := make([]uint8, 4)
	if _, err := ts.CreateFromPixels("one", 1, 1, pixels, false); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.CreateFromPixels("two", 1, 1, pixels, false); !errors.Is(err, core.ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if _, err := NewTextureSystem(&TextureSystemConfig{}, backend, nil, nil, nil); err == nil {
		t.Fatalf("zero MaxTextureCount must be rejected")
	}
}

func TestTextureSystemReloadKeepsPointer(t *testing.T) {
	backend := recorder.New()
	root := writeTestAssets(t)
	bus := core.NewEventBus()
	am := newTestAssetManager(t, root, bus)
	ts := newTestTextureSystem(t, backend, am, nil, bus)

	tex, err := ts.Acquire("textures/crate", false)
	if err != nil {
		t.Fatal(err)
	}
	gen := tex.Generation

	// replace the file with a larger, translucent image
	writePNG(t, filepath.Join(root, "textures", "crate.png"), 8, 8, color.NRGBA{A: 100})

	// the watcher would fire this; fire it by hand to stay deterministic
	info, _ := am.Lookup("textures/crate", metadata.ResourceTypeImage)
	bus.Fire(core.EVENT_CODE_ASSET_RELOADED, am, info)
	if tex.Generation != gen {
		t.Fatalf("reload must wait for Update")
	}
	ts.Update()

	if tex.Width != 8 || tex.Height != 8 || !tex.HasTransparency() {
		t.Fatalf("texture not reloaded: %+v", tex)
	}
	if tex.Generation != gen+1 {
		t.Fatalf("generation = %d, want %d", tex.Generation, gen+1)
	}
	if tex.InternalData == nil {
		t.Fatalf("reloaded texture has no backend data")
	}
	if got, _ := ts.Get("textures/crate"); got != tex {
		t.Fatalf("reload replaced the texture pointer")
	}
}

func TestTextureSystemAcquireAsync(t *testing.T) {
	backend := recorder.New()
	am := newTestAssetManager(t, writeTestAssets(t), nil)
	js := newTestJobSystem(t, 2)
	ts := newTestTextureSystem(t, backend, am, js, nil)

	var got []*metadata.Texture
	var errs []error
	done := func(tex *metadata.Texture, err error) {
		got = append(got, tex)
		errs = append(errs, err)
	}
	for i := 0; i < 2; i++ {
		if err := ts.AcquireAsync("textures/crate", false, done); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 0 {
		t.Fatalf("callbacks must wait for Update")
	}
	if err := js.Wait(5 * time.Second); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0] == nil || got[0] != got[1] {
		t.Fatalf("unexpected results %v %v", got, errs)
	}
	if ts.ReferenceCount("textures/crate") != 2 {
		t.Fatalf("reference count = %d", ts.ReferenceCount("textures/crate"))
	}
	if n := countOps(backend, recorder.OpTextureCreate); n != 2 {
		t.Fatalf("expected one upload besides the default texture, got %d", n)
	}

	// resident textures complete immediately
	if err := ts.AcquireAsync("textures/crate", false, done); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("resident texture must complete synchronously")
	}

	var failed error
	if err := ts.AcquireAsync("textures/missing", false, func(tex *metadata.Texture, err error) { failed = err }); err != nil {
		t.Fatal(err)
	}
	if err := js.Wait(5 * time.Second); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(failed, assets.ErrAssetNotFound) {
		t.Fatalf("expected asset not found, got %v", failed)
	}
}
