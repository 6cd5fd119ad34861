package systems

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/renderer/recorder"
)

type bakeOutcome struct {
	id  int
	err error
}

func newTestBaker(t *testing.T, backend *recorder.Backend) (*CacheBaker, *g2d.SpriteCache, *JobSystem) {
	t.Helper()
	cache, err := g2d.NewSpriteCache(&g2d.SpriteCacheConfig{Size: 32, ViewportWidth: 100, ViewportHeight: 100}, backend)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cache.Dispose)
	js := newTestJobSystem(t, 2)
	baker, err := NewCacheBaker(cache, js)
	if err != nil {
		t.Fatal(err)
	}
	return baker, cache, js
}

func bake(t *testing.T, baker *CacheBaker, js *JobSystem, name string, items []CacheItem) bakeOutcome {
	t.Helper()
	var out *bakeOutcome
	err := baker.Bake(BakeRequest{Name: name, Items: items, Done: func(id int, err error) {
		out = &bakeOutcome{id, err}
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := js.Wait(5 * time.Second); err != nil {
		t.Fatal(err)
	}
	if out == nil {
		t.Fatalf("bake %q never completed", name)
	}
	return *out
}

func tiles(regions ...*g2d.TextureRegion) []CacheItem {
	items := make([]CacheItem, len(regions))
	for i, r := range regions {
		items[i] = CacheItem{Region: r, Quad: g2d.NewQuad(float32(i*16), 0, 16, 16), Color: math.ColorWhite}
	}
	return items
}

func TestCacheBakerBake(t *testing.T) {
	backend := recorder.New()
	baker, cache, js := newTestBaker(t, backend)

	grass := &metadata.Texture{Name: "grass", Width: 32, Height: 32, ChannelCount: 4}
	stone := &metadata.Texture{Name: "stone", Width: 32, Height: 32, ChannelCount: 4}
	g := g2d.NewTextureRegionPixels(grass, 0, 0, 16, 16)
	s := g2d.NewTextureRegion(stone)

	got := bake(t, baker, js, "ground", tiles(g, g, s, g))
	if got.err != nil {
		t.Fatal(got.err)
	}
	if id, ok := baker.CacheID("ground"); !ok || id != got.id {
		t.Fatalf("CacheID(ground) = %d, %t", id, ok)
	}

	groups, err := cache.Groups(got.id)
	if err != nil {
		t.Fatal(err)
	}
	want := []g2d.CacheGroup{{Texture: grass, Triangles: 4}, {Texture: stone, Triangles: 2}, {Texture: grass, Triangles: 2}}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}

	vertices, err := cache.Vertices(got.id)
	if err != nil {
		t.Fatal(err)
	}
	expected := make([]float32, g2d.QuadSize)
	g2d.PackQuad(expected, g2d.NewQuad(0, 0, 16, 16), math.WhiteFloatBits, g.U, g.V2, g.U2, g.V)
	for i := range expected {
		if vertices[i] != expected[i] {
			t.Fatalf("vertex float %d = %v, want %v", i, vertices[i], expected[i])
		}
	}
}

func TestCacheBakerRebake(t *testing.T) {
	backend := recorder.New()
	baker, cache, js := newTestBaker(t, backend)

	tex := &metadata.Texture{Name: "tiles", Width: 16, Height: 16, ChannelCount: 4}
	r := g2d.NewTextureRegion(tex)

	first := bake(t, baker, js, "a", tiles(r, r))
	second := bake(t, baker, js, "b", tiles(r))
	if first.err != nil || second.err != nil || first.id == second.id {
		t.Fatalf("unexpected outcomes %+v %+v", first, second)
	}

	// "a" is not the last cache so it cannot grow
	grown := bake(t, baker, js, "a", tiles(r, r, r))
	if !errors.Is(grown.err, core.ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", grown.err)
	}

	shrunk := bake(t, baker, js, "a", tiles(r))
	if shrunk.err != nil || shrunk.id != first.id {
		t.Fatalf("rebake = %+v, want id %d", shrunk, first.id)
	}
	if cache.CacheCount() != 2 {
		t.Fatalf("rebaking must not add caches, got %d", cache.CacheCount())
	}
	groups, _ := cache.Groups(first.id)
	if len(groups) != 1 || groups[0].Triangles != 2 {
		t.Fatalf("unexpected groups after rebake %+v", groups)
	}
}

func TestCacheBakerOverflowRetry(t *testing.T) {
	backend := recorder.New()
	baker, cache, js := newTestBaker(t, backend)

	tex := &metadata.Texture{Name: "tiles", Width: 16, Height: 16, ChannelCount: 4}
	r := g2d.NewTextureRegion(tex)
	items := make([]*g2d.TextureRegion, 40)
	for i := range items {
		items[i] = r
	}

	var firstID int
	for attempt := 0; attempt < 3; attempt++ {
		got := bake(t, baker, js, "big", tiles(items...))
		if !errors.Is(got.err, core.ErrCapacity) {
			t.Fatalf("attempt %d: err = %v, want ErrCapacity", attempt, got.err)
		}
		id, ok := baker.CacheID("big")
		if !ok || id != got.id {
			t.Fatalf("attempt %d: CacheID(big) = %d, %t, want %d", attempt, id, ok, got.id)
		}
		if attempt == 0 {
			firstID = id
		} else if id != firstID {
			t.Fatalf("attempt %d: retry moved the cache from %d to %d", attempt, firstID, id)
		}
		if cache.CacheCount() != 1 {
			t.Fatalf("attempt %d: %d caches, want 1", attempt, cache.CacheCount())
		}
	}

	fits := bake(t, baker, js, "big", tiles(r, r))
	if fits.err != nil || fits.id != firstID {
		t.Fatalf("rebake that fits = %+v, want id %d", fits, firstID)
	}
	groups, _ := cache.Groups(firstID)
	if len(groups) != 1 || groups[0].Triangles != 4 {
		t.Fatalf("unexpected groups after retry %+v", groups)
	}
}

func TestCacheBakerValidation(t *testing.T) {
	backend := recorder.New()
	baker, _, js := newTestBaker(t, backend)
	tex := &metadata.Texture{Name: "t", Width: 1, Height: 1}

	tests := []struct {
		name    string
		req     BakeRequest
		wantErr error
	}{
		{"no name", BakeRequest{Items: tiles(g2d.NewTextureRegion(tex))}, core.ErrInvalidArgument},
		{"nil region", BakeRequest{Name: "x", Items: []CacheItem{{}}}, core.ErrNilTexture},
		{"nil texture", BakeRequest{Name: "x", Items: []CacheItem{{Region: &g2d.TextureRegion{}}}}, core.ErrNilTexture},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := baker.Bake(tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Bake() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if js.Pending() != 0 {
		t.Errorf("rejected requests must not reach the job system")
	}

	if _, err := NewCacheBaker(nil, js); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("NewCacheBaker(nil) error = %v", err)
	}
}
