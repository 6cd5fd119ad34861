package g2d

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/math"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type SpriteCacheConfig struct {
	// Size is the total number of quads all caches can hold. Zero selects DefaultBatchSize.
	Size           int
	ViewportWidth  float32
	ViewportHeight float32
	// Shader replaces the built-in cache shader. The caller keeps ownership.
	// It receives u_proj, u_trans, u_projTrans and u_texture when declared.
	Shader *metadata.Shader
}

// CacheGroup is a run of consecutive triangles sharing one texture.
type CacheGroup struct {
	Texture   *metadata.Texture
	Triangles int
}

type cache struct {
	id       int
	offset   int
	maxCount int
	groups   []CacheGroup
	defined  bool
}

// SpriteCache stores quads once and replays them every frame. Caches
// are recorded between BeginCache and EndCache and drawn between Begin
// and End. Adding to a cache and drawing are separate phases; callers
// that add from another goroutine must hand the cache over explicitly.
type SpriteCache struct {
	backend renderer.RendererBackend
	mesh    *metadata.Mesh

	store    []float32
	capacity int
	position int
	dirty    bool

	caches       []*cache
	currentCache *cache
	groups       []CacheGroup

	drawing          bool
	projectionMatrix math.Mat4
	transformMatrix  math.Mat4
	combinedMatrix   math.Mat4

	shader       *metadata.Shader
	customShader *metadata.Shader

	color       math.Color
	colorPacked float32
	quad        [QuadSize]float32

	// Number of draw calls since the last Begin.
	RenderCalls int
	// Number of draw calls since the cache was created.
	TotalRenderCalls int
}

func NewSpriteCache(config *SpriteCacheConfig, backend renderer.RendererBackend) (*SpriteCache, error) {
	size := config.Size
	if size == 0 {
		size = DefaultBatchSize
	}
	if size < 0 || size > MaxSpriteBatchSize {
		return nil, fmt.Errorf("sprite cache: can't have more than %d sprites, got %d: %w", MaxSpriteBatchSize, size, core.ErrCapacity)
	}

	sc := &SpriteCache{
		backend:          backend,
		store:            make([]float32, 0, size*QuadSize),
		capacity:         size * QuadSize,
		projectionMatrix: math.NewMat4Ortho2D(0, 0, config.ViewportWidth, config.ViewportHeight),
		transformMatrix:  math.NewMat4Identity(),
		color:            math.ColorWhite,
		colorPacked:      math.WhiteFloatBits,
		customShader:     config.Shader,
	}
	cfg := CacheShaderConfig()
	sc.shader = metadata.NewShader(cfg)
	if err := backend.ShaderCreate(sc.shader, cfg); err != nil {
		return nil, fmt.Errorf("sprite cache: creating shader: %w", err)
	}

	mesh, err := newSpriteMesh(backend, size*4, size*QuadIndices, true)
	if err != nil {
		backend.ShaderDestroy(sc.shader)
		return nil, fmt.Errorf("sprite cache: %w", err)
	}
	sc.mesh = mesh
	indices := make([]uint16, size*QuadIndices)
	quadIndices(indices)
	if err := backend.MeshSetIndices(mesh, indices); err != nil {
		sc.Dispose()
		return nil, fmt.Errorf("sprite cache: %w", err)
	}
	core.LogDebug("sprite cache created: %d sprites", size)
	return sc, nil
}

// BeginCache starts a new cache at the end of the store.
func (sc *SpriteCache) BeginCache() error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: End must be called before BeginCache: %w", core.ErrInvalidState)
	}
	if sc.currentCache != nil {
		return fmt.Errorf("sprite cache: EndCache must be called before BeginCache: %w", core.ErrInvalidState)
	}
	sc.position = len(sc.store)
	sc.currentCache = &cache{id: len(sc.caches), offset: sc.position}
	sc.groups = sc.groups[:0]
	return nil
}

// BeginCacheID reopens an existing cache. The last cache may grow; any
// other cache can hold at most what it held when first defined.
func (sc *SpriteCache) BeginCacheID(id int) error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: End must be called before BeginCache: %w", core.ErrInvalidState)
	}
	if sc.currentCache != nil {
		return fmt.Errorf("sprite cache: EndCache must be called before BeginCache: %w", core.ErrInvalidState)
	}
	if id < 0 || id >= len(sc.caches) {
		return fmt.Errorf("sprite cache: unknown cache %d: %w", id, core.ErrInvalidArgument)
	}
	if id == len(sc.caches)-1 {
		old := sc.caches[id]
		sc.caches = sc.caches[:id]
		sc.store = sc.store[:old.offset]
		sc.dirty = true
		return sc.BeginCache()
	}
	sc.currentCache = sc.caches[id]
	sc.position = sc.currentCache.offset
	sc.groups = sc.groups[:0]
	return nil
}

// EndCache closes the open cache and returns its id.
func (sc *SpriteCache) EndCache() (int, error) {
	c := sc.currentCache
	if c == nil {
		return 0, fmt.Errorf("sprite cache: BeginCache must be called before EndCache: %w", core.ErrInvalidState)
	}
	cacheCount := sc.position - c.offset
	if !c.defined {
		c.maxCount = cacheCount
		c.defined = true
		sc.caches = append(sc.caches, c)
	} else if cacheCount > c.maxCount {
		return 0, fmt.Errorf("sprite cache: cache %d redefined with %d floats, first definition held %d: %w",
			c.id, cacheCount, c.maxCount, core.ErrCapacity)
	}
	c.groups = append(c.groups[:0], sc.groups...)

	sc.currentCache = nil
	sc.groups = sc.groups[:0]
	return c.id, nil
}

// Clear drops every cache.
func (sc *SpriteCache) Clear() error {
	if sc.drawing || sc.currentCache != nil {
		return fmt.Errorf("sprite cache: Clear during drawing or recording: %w", core.ErrInvalidState)
	}
	sc.caches = sc.caches[:0]
	sc.store = sc.store[:0]
	sc.position = 0
	sc.dirty = true
	return nil
}

// CacheCount returns the number of defined caches.
func (sc *SpriteCache) CacheCount() int {
	return len(sc.caches)
}

// Groups returns the texture groups of a cache in draw order.
func (sc *SpriteCache) Groups(id int) ([]CacheGroup, error) {
	if id < 0 || id >= len(sc.caches) {
		return nil, fmt.Errorf("sprite cache: unknown cache %d: %w", id, core.ErrInvalidArgument)
	}
	return sc.caches[id].groups, nil
}

// Vertices returns the floats stored for a cache.
func (sc *SpriteCache) Vertices(id int) ([]float32, error) {
	if id < 0 || id >= len(sc.caches) {
		return nil, fmt.Errorf("sprite cache: unknown cache %d: %w", id, core.ErrInvalidArgument)
	}
	c := sc.caches[id]
	count := 0
	for _, g := range c.groups {
		count += g.Triangles / 2 * QuadSize
	}
	return sc.store[c.offset : c.offset+count], nil
}

func (sc *SpriteCache) SetColor(c math.Color) {
	sc.color = c
	sc.colorPacked = c.ToFloatBits()
}

func (sc *SpriteCache) SetPackedColor(packed float32) {
	sc.colorPacked = packed
	sc.color = math.ColorFromFloatBits(packed)
}

func (sc *SpriteCache) Color() math.Color {
	return sc.color
}

// AddVertices appends pre-packed quads to the open cache. Nothing is
// written when the quads do not fit.
func (sc *SpriteCache) AddVertices(texture *metadata.Texture, vertices []float32, offset, length int) error {
	c := sc.currentCache
	if c == nil {
		return fmt.Errorf("sprite cache: BeginCache must be called before Add: %w", core.ErrInvalidState)
	}
	if texture == nil {
		return fmt.Errorf("sprite cache: %w", core.ErrNilTexture)
	}
	if err := checkRange("sprite cache", len(vertices), offset, length, QuadSize); err != nil {
		return err
	}
	end := sc.position + length
	if c.defined && end-c.offset > c.maxCount {
		return fmt.Errorf("sprite cache: cache %d is not the last created and can't grow beyond %d floats: %w",
			c.id, c.maxCount, core.ErrCapacity)
	}
	if end > sc.capacity {
		return fmt.Errorf("sprite cache: store full at %d floats: %w", sc.capacity, core.ErrCapacity)
	}

	triangles := length / QuadSize * 2
	if last := len(sc.groups) - 1; last >= 0 && sc.groups[last].Texture == texture {
		sc.groups[last].Triangles += triangles
	} else {
		sc.groups = append(sc.groups, CacheGroup{Texture: texture, Triangles: triangles})
	}

	if end > len(sc.store) {
		sc.store = append(sc.store[:sc.position], vertices[offset:offset+length]...)
	} else {
		copy(sc.store[sc.position:], vertices[offset:offset+length])
	}
	sc.position = end
	sc.dirty = true
	return nil
}

func (sc *SpriteCache) addQuad(texture *metadata.Texture) error {
	return sc.AddVertices(texture, sc.quad[:], 0, QuadSize)
}

func (sc *SpriteCache) Add(texture *metadata.Texture, x, y, width, height float32) error {
	PackRect(sc.quad[:], x, y, width, height, sc.colorPacked, 0, 1, 1, 0)
	return sc.addQuad(texture)
}

func (sc *SpriteCache) AddUV(texture *metadata.Texture, x, y, width, height, u, v, u2, v2 float32) error {
	PackRect(sc.quad[:], x, y, width, height, sc.colorPacked, u, v, u2, v2)
	return sc.addQuad(texture)
}

func (sc *SpriteCache) AddQuad(texture *metadata.Texture, q Quad, src SourceRect) error {
	if texture == nil {
		return fmt.Errorf("sprite cache: %w", core.ErrNilTexture)
	}
	u, v, u2, v2 := src.UV(texture)
	PackQuad(sc.quad[:], q, sc.colorPacked, u, v, u2, v2)
	return sc.addQuad(texture)
}

func (sc *SpriteCache) AddRegion(region *TextureRegion, x, y, width, height float32) error {
	PackRect(sc.quad[:], x, y, width, height, sc.colorPacked, region.U, region.V2, region.U2, region.V)
	return sc.addQuad(region.Texture)
}

func (sc *SpriteCache) AddRegionQuad(region *TextureRegion, q Quad) error {
	PackQuad(sc.quad[:], q, sc.colorPacked, region.U, region.V2, region.U2, region.V)
	return sc.addQuad(region.Texture)
}

// AddSprite stores the sprite's current vertices.
func (sc *SpriteCache) AddSprite(sprite *Sprite) error {
	return sc.AddVertices(sprite.Region.Texture, sprite.Vertices(), 0, QuadSize)
}

func (sc *SpriteCache) ProjectionMatrix() math.Mat4 {
	return sc.projectionMatrix
}

func (sc *SpriteCache) TransformMatrix() math.Mat4 {
	return sc.transformMatrix
}

func (sc *SpriteCache) SetProjectionMatrix(projection math.Mat4) error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: can't set the matrix within Begin/End: %w", core.ErrInvalidState)
	}
	sc.projectionMatrix = projection
	return nil
}

func (sc *SpriteCache) SetTransformMatrix(transform math.Mat4) error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: can't set the matrix within Begin/End: %w", core.ErrInvalidState)
	}
	sc.transformMatrix = transform
	return nil
}

// SetShader replaces the shader; nil restores the built-in one.
func (sc *SpriteCache) SetShader(shader *metadata.Shader) error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: can't set the shader within Begin/End: %w", core.ErrInvalidState)
	}
	sc.customShader = shader
	return nil
}

func (sc *SpriteCache) IsDrawing() bool {
	return sc.drawing
}

func (sc *SpriteCache) activeShader() *metadata.Shader {
	if sc.customShader != nil {
		return sc.customShader
	}
	return sc.shader
}

// Begin uploads modified cache data and binds the shader for replay.
func (sc *SpriteCache) Begin() error {
	if sc.drawing {
		return fmt.Errorf("sprite cache: End must be called before Begin: %w", core.ErrInvalidState)
	}
	if sc.currentCache != nil {
		return fmt.Errorf("sprite cache: EndCache must be called before Begin: %w", core.ErrInvalidState)
	}
	sc.RenderCalls = 0
	if sc.dirty {
		if err := sc.backend.MeshSetVertices(sc.mesh, sc.store); err != nil {
			return fmt.Errorf("sprite cache: %w", err)
		}
		sc.dirty = false
	}
	sc.combinedMatrix = sc.projectionMatrix.Mul(sc.transformMatrix)
	sc.backend.SetDepthMask(false)

	shader := sc.activeShader()
	if err := sc.backend.ShaderUse(shader); err != nil {
		return fmt.Errorf("sprite cache: binding shader: %w", err)
	}
	if sc.customShader != nil {
		uniforms := []struct {
			name  string
			value math.Mat4
		}{
			{UniformProjection, sc.projectionMatrix},
			{UniformTransform, sc.transformMatrix},
			{UniformProjTrans, sc.combinedMatrix},
		}
		for _, u := range uniforms {
			if !shader.HasUniform(u.name) {
				continue
			}
			if err := sc.backend.SetUniformMatrix(shader, u.name, u.value); err != nil {
				return fmt.Errorf("sprite cache: %w", err)
			}
		}
	} else if err := sc.backend.SetUniformMatrix(shader, UniformProjectionViewMatrix, sc.combinedMatrix); err != nil {
		return fmt.Errorf("sprite cache: %w", err)
	}
	if shader.HasUniform(UniformTexture) {
		if err := sc.backend.SetUniformInt(shader, UniformTexture, 0); err != nil {
			return fmt.Errorf("sprite cache: %w", err)
		}
	}
	sc.drawing = true
	return nil
}

func (sc *SpriteCache) End() error {
	if !sc.drawing {
		return fmt.Errorf("sprite cache: Begin must be called before End: %w", core.ErrInvalidState)
	}
	sc.drawing = false
	sc.backend.SetDepthMask(true)
	return sc.backend.ShaderEnd(sc.activeShader())
}

// Draw replays a cache with one draw call per texture group.
func (sc *SpriteCache) Draw(id int) error {
	c, err := sc.drawable(id)
	if err != nil {
		return err
	}
	return sc.drawTriangles(c, 0, sc.triangleCount(c))
}

// DrawRange replays length triangles of a cache starting at triangle
// offset, skipping groups outside the range.
func (sc *SpriteCache) DrawRange(id, offset, length int) error {
	c, err := sc.drawable(id)
	if err != nil {
		return err
	}
	if offset < 0 || length < 0 {
		return fmt.Errorf("sprite cache: negative triangle range: %w", core.ErrInvalidArgument)
	}
	total := sc.triangleCount(c)
	if offset >= total || length == 0 {
		return nil
	}
	return sc.drawTriangles(c, offset, min(length, total-offset))
}

func (sc *SpriteCache) drawable(id int) (*cache, error) {
	if !sc.drawing {
		return nil, fmt.Errorf("sprite cache: Begin must be called before Draw: %w", core.ErrInvalidState)
	}
	if id < 0 || id >= len(sc.caches) {
		return nil, fmt.Errorf("sprite cache: unknown cache %d: %w", id, core.ErrInvalidArgument)
	}
	return sc.caches[id], nil
}

func (sc *SpriteCache) triangleCount(c *cache) int {
	n := 0
	for _, g := range c.groups {
		n += g.Triangles
	}
	return n
}

func (sc *SpriteCache) drawTriangles(c *cache, offset, length int) error {
	shader := sc.activeShader()
	first := c.offset / QuadSize * 2
	start := 0
	var errs []error
	for _, g := range c.groups {
		groupStart, groupEnd := start, start+g.Triangles
		start = groupEnd
		from := max(groupStart, offset)
		to := min(groupEnd, offset+length)
		if from >= to {
			continue
		}
		if err := sc.backend.TextureBind(g.Texture, 0); err != nil {
			errs = append(errs, fmt.Errorf("sprite cache: binding texture %q: %w", g.Texture.Name, err))
			break
		}
		if err := sc.backend.MeshRender(sc.mesh, shader, metadata.PrimitiveTriangles, (first+from)*3, (to-from)*3); err != nil {
			errs = append(errs, fmt.Errorf("sprite cache: %w", err))
			break
		}
		sc.RenderCalls++
		sc.TotalRenderCalls++
	}
	return errors.Join(errs...)
}

func (sc *SpriteCache) Dispose() {
	if sc.mesh != nil {
		sc.backend.MeshDestroy(sc.mesh)
		sc.mesh = nil
	}
	if sc.shader != nil {
		sc.backend.ShaderDestroy(sc.shader)
		sc.shader = nil
	}
}
