package testbed

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima/engine"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/systems"
	"golang.org/x/exp/rand"
)

const (
	spriteCount = 200
	tileSize    = 32
	floorCache  = "floor"
)

type gameState struct {
	width  uint32
	height uint32

	rng       *rand.Rand
	atlas     *metadata.Texture
	tiles     []*g2d.TextureRegion
	sprites   []*g2d.Sprite
	polygon   *g2d.PolygonRegion
	tint      *metadata.Shader
	font      *systems.BitmapFont
	cacheID   int
	showFloor bool
	angle     float32
}

// NewTestGame builds the demo: a baked tile floor in the sprite cache,
// rotating sprites, a polygon batch hexagon with a custom shader, a
// CPU-transformed batch and a text overlay when a font is configured.
func NewTestGame(config *engine.ApplicationConfig) *engine.Game {
	state := &gameState{
		rng:       rand.New(rand.NewSource(42)),
		cacheID:   -1,
		showFloor: true,
	}
	g := &engine.Game{
		ApplicationConfig: config,
		State:             state,
	}
	g.FnInitialize = func() error { return initialize(g, state) }
	g.FnUpdate = func(deltaTime float64) error { return update(g, state, deltaTime) }
	g.FnRender = func(r *systems.RendererSystem, deltaTime float64) error { return render(g, state, r) }
	g.FnOnResize = func(width, height uint32) error {
		state.width = width
		state.height = height
		return nil
	}
	g.FnShutdown = func() error {
		if state.font != nil {
			_ = g.SystemManager.Fonts.Release(state.font.Name)
		}
		if state.atlas == nil {
			return nil
		}
		return g.SystemManager.Textures.Release(state.atlas.Name)
	}
	return g
}

// 2x2 tiles of solid colour with a darker border.
func atlasPixels() []uint8 {
	colors := [4][3]uint8{{90, 160, 70}, {120, 110, 100}, {200, 180, 90}, {70, 120, 200}}
	const size = tileSize * 2
	pixels := make([]uint8, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := colors[(y/tileSize)*2+x/tileSize]
			shade := uint8(255)
			if x%tileSize == 0 || y%tileSize == 0 {
				shade = 180
			}
			i := (y*size + x) * 4
			pixels[i] = uint8(uint16(c[0]) * uint16(shade) / 255)
			pixels[i+1] = uint8(uint16(c[1]) * uint16(shade) / 255)
			pixels[i+2] = uint8(uint16(c[2]) * uint16(shade) / 255)
			pixels[i+3] = 255
		}
	}
	return pixels
}

func initialize(g *engine.Game, state *gameState) error {
	core.LogDebug("TestGame Initialize fn....")
	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	sm := g.SystemManager

	atlas, err := sm.Textures.CreateFromPixels("", tileSize*2, tileSize*2, atlasPixels(), true)
	if err != nil {
		return err
	}
	state.atlas = atlas
	for _, row := range g2d.NewTextureRegion(atlas).Split(tileSize, tileSize) {
		state.tiles = append(state.tiles, row...)
	}

	for i := 0; i < spriteCount; i++ {
		s := g2d.NewSprite(state.tiles[state.rng.Intn(len(state.tiles))])
		s.SetSize(16, 16)
		s.SetOriginCenter()
		s.SetPosition(state.rng.Float32()*float32(g.ApplicationConfig.Window.Width), state.rng.Float32()*float32(g.ApplicationConfig.Window.Height))
		s.SetColor(math.NewColor(1, 1, 1, 0.5+state.rng.Float32()*0.5))
		state.sprites = append(state.sprites, s)
	}

	// hexagon in the last tile
	hex := make([]float32, 0, 12)
	for i := 0; i < 6; i++ {
		deg := float32(i) * 60
		hex = append(hex, tileSize/2+math.CosDeg(deg)*tileSize/2, tileSize/2+math.SinDeg(deg)*tileSize/2)
	}
	state.polygon = g2d.NewPolygonRegion(state.tiles[3], hex, g2d.FanTriangles(6))

	tintConfig := g2d.DefaultShaderConfig()
	tintConfig.Name = "Shader.Testbed.Tint"
	tintConfig.FragmentSource = strings.Replace(tintConfig.FragmentSource, "v_color *", "vec4(1.0, 0.8, 0.8, 1.0) * v_color *", 1)
	if state.tint, err = sm.Shaders.CreateShader(tintConfig); err != nil {
		return err
	}
	if err := sm.Renderer.PolygonBatch.SetShader(state.tint); err != nil {
		return err
	}

	if sm.Fonts != nil && len(g.ApplicationConfig.Assets.Fonts) > 0 {
		if state.font, err = sm.Fonts.Acquire(g.ApplicationConfig.Assets.Fonts[0].Name); err != nil {
			return err
		}
	}

	return bakeFloor(g, state)
}

func bakeFloor(g *engine.Game, state *gameState) error {
	cols := int(g.ApplicationConfig.Window.Width)/tileSize + 1
	rows := int(g.ApplicationConfig.Window.Height)/tileSize + 1
	if limit := g.ApplicationConfig.Batch.CacheSize; cols*rows > limit {
		cols, rows = limit, 1
	}
	items := make([]systems.CacheItem, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			items = append(items, systems.CacheItem{
				Region: state.tiles[state.rng.Intn(2)],
				Quad:   g2d.NewQuad(float32(x*tileSize), float32(y*tileSize), tileSize, tileSize),
				Color:  math.ColorWhite,
			})
		}
	}
	return g.SystemManager.Baker.Bake(systems.BakeRequest{
		Name:  floorCache,
		Items: items,
		Done: func(id int, err error) {
			if err != nil {
				core.LogError("floor bake failed: %s", err)
				return
			}
			state.cacheID = id
		},
	})
}

func update(g *engine.Game, state *gameState, deltaTime float64) error {
	state.angle += float32(deltaTime) * 45

	if g.Input.KeyPressedThisFrame(core.KEY_C) {
		state.showFloor = !state.showFloor
		core.LogInfo("floor cache visible: %t", state.showFloor)
	}
	if g.Input.KeyPressedThisFrame(core.KEY_R) {
		for _, s := range state.sprites {
			s.SetPosition(state.rng.Float32()*float32(state.width), state.rng.Float32()*float32(state.height))
		}
	}
	for _, s := range state.sprites {
		s.Rotate(float32(deltaTime) * 90)
	}
	if g.Input.KeyPressedThisFrame(core.KEY_P) {
		m := core.MetricsSnapshot()
		core.LogInfo("FPS: %5.1f(%4.1fms) render calls: %d (max %d)", m.FPS, m.MSavg, m.RenderCalls, m.MaxRenderCalls)
	}
	return nil
}

func render(g *engine.Game, state *gameState, r *systems.RendererSystem) error {
	if state.showFloor && state.cacheID >= 0 {
		if err := r.Cache.Begin(); err != nil {
			return err
		}
		if err := r.Cache.Draw(state.cacheID); err != nil {
			return err
		}
		if err := r.Cache.End(); err != nil {
			return err
		}
	}

	if err := r.SpriteBatch.Begin(); err != nil {
		return err
	}
	for _, s := range state.sprites {
		if err := s.Draw(r.SpriteBatch); err != nil {
			return err
		}
	}
	if err := r.SpriteBatch.End(); err != nil {
		return err
	}

	cx, cy := float32(state.width)/2, float32(state.height)/2
	if err := r.PolygonBatch.Begin(); err != nil {
		return err
	}
	if err := r.PolygonBatch.DrawPolygonRegionSized(state.polygon, cx-64, cy-64, 128, 128); err != nil {
		return err
	}
	if err := r.PolygonBatch.End(); err != nil {
		return err
	}

	if err := r.CpuBatch.Begin(); err != nil {
		return err
	}
	for i, tile := range state.tiles {
		transform := math.NewAffine2TrnRotScl(cx, cy, state.angle+float32(i)*90, 1, 1)
		if err := r.CpuBatch.SetTransformMatrix(transform.ToMat4()); err != nil {
			return err
		}
		if err := r.CpuBatch.DrawRegion(tile, 80, -tileSize/2, tileSize, tileSize); err != nil {
			return err
		}
	}
	if err := r.CpuBatch.SetTransformMatrix(math.NewMat4Identity()); err != nil {
		return err
	}
	if err := r.CpuBatch.End(); err != nil {
		return err
	}

	if state.font == nil {
		return nil
	}
	if err := r.SpriteBatch.Begin(); err != nil {
		return err
	}
	text := fmt.Sprintf("FPS %.0f  calls %d", core.MetricsFPS(), r.LastFrameRenderCalls)
	if err := g.SystemManager.Fonts.DrawText(r.SpriteBatch, state.font, text, 8, float32(state.height)-8); err != nil {
		return err
	}
	return r.SpriteBatch.End()
}
