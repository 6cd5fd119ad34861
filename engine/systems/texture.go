package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var ErrTextureNotFound = errors.New("texture not found")

const defaultTextureDimension = 16

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief Filtering applied to loaded textures. */
	Filter metadata.TextureFilter
}

type textureReference struct {
	texture        *metadata.Texture
	referenceCount uint64
	autoRelease    bool
}

// textureLoad carries a decoded image from a worker back to Update.
type textureLoad struct {
	name     string
	resource *metadata.Resource
}

/**
 * @brief Owns every texture handed to the batches. Textures are reference
 * counted by name; the *metadata.Texture pointer stays stable across
 * reloads so regions and cached batches keep working.
 */
type TextureSystem struct {
	config       *TextureSystemConfig
	backend      renderer.RendererBackend
	assetManager *assets.AssetManager
	jobSystem    *JobSystem
	ids          *core.IdentifierPool

	mu             sync.Mutex
	registered     map[string]*textureReference
	loading        map[string][]func(*metadata.Texture, error)
	pendingReloads map[string]struct{}
	defaultTexture *metadata.Texture
}

// NewTextureSystem wires the system. am, js and bus may be nil: without an
// asset manager only CreateFromPixels works, without a job system
// AcquireAsync loads synchronously, without a bus hot reload is off.
func NewTextureSystem(config *TextureSystemConfig, backend renderer.RendererBackend, am *assets.AssetManager, js *JobSystem, bus *core.EventBus) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	ts := &TextureSystem{
		config:         config,
		backend:        backend,
		assetManager:   am,
		jobSystem:      js,
		ids:            core.NewIdentifierPool(int(config.MaxTextureCount)),
		registered:     make(map[string]*textureReference),
		loading:        make(map[string][]func(*metadata.Texture, error)),
		pendingReloads: make(map[string]struct{}),
	}

	if err := ts.createDefaultTexture(); err != nil {
		return nil, err
	}

	if bus != nil {
		bus.Register(core.EVENT_CODE_ASSET_RELOADED, ts, ts.onAssetReloaded)
	}

	return ts, nil
}

// Create a 16x16 magenta and white checkerboard used when a texture is missing.
func (ts *TextureSystem) createDefaultTexture() error {
	const dim = defaultTextureDimension
	pixels := make([]uint8, dim*dim*4)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			i := (row*dim + col) * 4
			pixels[i+3] = 255
			if (row/4+col/4)%2 == 0 {
				pixels[i], pixels[i+1], pixels[i+2] = 255, 0, 255
			} else {
				pixels[i], pixels[i+1], pixels[i+2] = 255, 255, 255
			}
		}
	}

	t := &metadata.Texture{
		Name:         metadata.DEFAULT_TEXTURE_NAME,
		Width:        dim,
		Height:       dim,
		ChannelCount: 4,
		MinFilter:    metadata.TextureFilterModeNearest,
		MagFilter:    metadata.TextureFilterModeNearest,
		RepeatU:      metadata.TextureRepeatRepeat,
		RepeatV:      metadata.TextureRepeatRepeat,
		Flags:        metadata.TextureFlagIsWrapped,
	}
	t.ID = ts.ids.Acquire(t)
	if err := ts.backend.TextureCreate(pixels, t); err != nil {
		return fmt.Errorf("failed to create default texture: %w", err)
	}
	ts.defaultTexture = t
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *metadata.Texture {
	return ts.defaultTexture
}

// Get returns a registered texture without touching its reference count.
func (ts *TextureSystem) Get(name string) (*metadata.Texture, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ref, ok := ts.registered[name]
	if !ok {
		return nil, false
	}
	return ref.texture, true
}

func (ts *TextureSystem) Count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.registered)
}

// ReferenceCount returns the number of outstanding acquisitions of name.
func (ts *TextureSystem) ReferenceCount(name string) uint64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ref, ok := ts.registered[name]; ok {
		return ref.referenceCount
	}
	return 0
}

// Acquire returns the named texture, loading it from the asset manager on
// first use. autoRelease only applies to the first acquisition.
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*metadata.Texture, error) {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		core.LogWarn("texture system Acquire called for default texture. Use GetDefaultTexture for texture 'default'")
		return ts.defaultTexture, nil
	}
	if t, ok := ts.addReference(name); ok {
		return t, nil
	}

	res, err := ts.loadImage(name)
	if err != nil {
		return nil, err
	}
	return ts.register(name, res, autoRelease)
}

// AcquireAsync decodes the image on the job system and uploads it during
// the next JobSystem.Update. done is always called on the Update thread,
// or immediately when the texture is already resident.
func (ts *TextureSystem) AcquireAsync(name string, autoRelease bool, done func(*metadata.Texture, error)) error {
	if done == nil {
		done = func(*metadata.Texture, error) {}
	}
	if t, ok := ts.addReference(name); ok {
		done(t, nil)
		return nil
	}
	if ts.jobSystem == nil {
		t, err := ts.Acquire(name, autoRelease)
		done(t, err)
		return nil
	}

	ts.mu.Lock()
	waiting, inFlight := ts.loading[name]
	ts.loading[name] = append(waiting, done)
	ts.mu.Unlock()
	if inFlight {
		return nil
	}

	err := ts.jobSystem.Submit(metadata.JobTask{
		Priority:    metadata.JOB_PRIORITY_NORMAL,
		InputParams: name,
		OnStart: func(params interface{}, out chan<- interface{}) error {
			n := params.(string)
			res, err := ts.loadImage(n)
			if err != nil {
				return err
			}
			out <- &textureLoad{name: n, resource: res}
			return nil
		},
		OnComplete: func(result interface{}) {
			load := result.(*textureLoad)
			callbacks := ts.takeWaiting(load.name)
			t, ok := ts.addReference(load.name)
			var err error
			if ok {
				ts.unload(load.resource)
			} else {
				t, err = ts.register(load.name, load.resource, autoRelease)
			}
			for i, cb := range callbacks {
				// the first waiter owns the reference taken above
				if i > 0 && err == nil {
					ts.addReference(load.name)
				}
				cb(t, err)
			}
		},
		OnFailure: func(err error) {
			core.LogError("Failed to load texture '%s': %s", name, err)
			for _, cb := range ts.takeWaiting(name) {
				cb(nil, err)
			}
		},
	})
	if err != nil {
		ts.takeWaiting(name)
		return err
	}
	return nil
}

func (ts *TextureSystem) takeWaiting(name string) []func(*metadata.Texture, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	waiting := ts.loading[name]
	delete(ts.loading, name)
	return waiting
}

// CreateFromPixels registers a texture built from raw RGBA data. An empty
// name gets a generated one.
func (ts *TextureSystem) CreateFromPixels(name string, width, height uint32, pixels []uint8, autoRelease bool) (*metadata.Texture, error) {
	if name == "" {
		name = fmt.Sprintf("__texture_%s__", uuid.NewString())
	}
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return nil, fmt.Errorf("texture '%s': expected %d bytes of RGBA data, got %d: %w", name, width*height*4, len(pixels), core.ErrInvalidArgument)
	}
	ts.mu.Lock()
	_, exists := ts.registered[name]
	ts.mu.Unlock()
	if exists {
		return nil, fmt.Errorf("texture '%s' already exists: %w", name, core.ErrInvalidArgument)
	}

	data := &metadata.ImageResourceData{
		ChannelCount: 4,
		Width:        width,
		Height:       height,
		Pixels:       pixels,
	}
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] < 255 {
			data.HasTransparency = true
			break
		}
	}
	t, err := ts.register(name, &metadata.Resource{Name: name, Type: metadata.ResourceTypeImage, Data: data}, autoRelease)
	if err != nil {
		return nil, err
	}
	t.Flags |= metadata.TextureFlagIsWrapped
	return t, nil
}

// Release drops one reference. Auto-released textures are destroyed when
// the count reaches zero.
func (ts *TextureSystem) Release(name string) error {
	ts.mu.Lock()
	ref, ok := ts.registered[name]
	if !ok {
		ts.mu.Unlock()
		core.LogWarn("Tried to release non-existent texture: '%s'", name)
		return fmt.Errorf("release '%s': %w", name, ErrTextureNotFound)
	}
	if ref.referenceCount == 0 {
		ts.mu.Unlock()
		core.LogWarn("Tried to release texture '%s' whose reference count is already 0", name)
		return nil
	}
	ref.referenceCount--
	destroy := ref.referenceCount == 0 && ref.autoRelease
	if destroy {
		delete(ts.registered, name)
	}
	ts.mu.Unlock()

	if destroy {
		return ts.destroyTexture(ref.texture)
	}
	return nil
}

// Reload re-reads the named texture from disk into the same *Texture and
// bumps its generation.
func (ts *TextureSystem) Reload(name string) error {
	ts.mu.Lock()
	ref, ok := ts.registered[name]
	ts.mu.Unlock()
	if !ok {
		return fmt.Errorf("reload '%s': %w", name, ErrTextureNotFound)
	}
	if ref.texture.Flags&metadata.TextureFlagIsWrapped != 0 {
		return fmt.Errorf("reload '%s': texture was not loaded from a file: %w", name, core.ErrInvalidArgument)
	}

	res, err := ts.loadImage(name)
	if err != nil {
		return err
	}
	defer ts.unload(res)
	data := res.Data.(*metadata.ImageResourceData)

	t := ref.texture
	ts.backend.TextureDestroy(t)
	t.Width = data.Width
	t.Height = data.Height
	t.ChannelCount = data.ChannelCount
	t.Flags &^= metadata.TextureFlagHasTransparency
	if data.HasTransparency {
		t.Flags |= metadata.TextureFlagHasTransparency
	}
	if err := ts.backend.TextureCreate(data.Pixels, t); err != nil {
		return fmt.Errorf("reload '%s': %w", name, err)
	}
	t.Generation++
	core.LogInfo("Reloaded texture '%s' (generation %d).", name, t.Generation)
	return nil
}

// Update applies hot reloads queued by the asset watcher.
func (ts *TextureSystem) Update() {
	ts.mu.Lock()
	if len(ts.pendingReloads) == 0 {
		ts.mu.Unlock()
		return
	}
	names := make([]string, 0, len(ts.pendingReloads))
	for name := range ts.pendingReloads {
		names = append(names, name)
	}
	ts.pendingReloads = make(map[string]struct{})
	ts.mu.Unlock()

	for _, name := range names {
		if err := ts.Reload(name); err != nil {
			core.LogError("hot reload of texture '%s' failed: %s", name, err)
		}
	}
}

// Runs on the watcher goroutine; the reload itself waits for Update.
func (ts *TextureSystem) onAssetReloaded(ctx core.EventContext, listener interface{}) bool {
	info, ok := ctx.Data.(assets.AssetInfo)
	if !ok || info.Type != metadata.ResourceTypeImage {
		return false
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, ok := ts.registered[info.Name]; ok {
		ts.pendingReloads[info.Name] = struct{}{}
	}
	return false
}

func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	refs := ts.registered
	ts.registered = make(map[string]*textureReference)
	ts.mu.Unlock()

	for _, ref := range refs {
		if err := ts.destroyTexture(ref.texture); err != nil {
			return err
		}
	}
	if ts.defaultTexture != nil {
		if err := ts.destroyTexture(ts.defaultTexture); err != nil {
			return err
		}
		ts.defaultTexture = nil
	}
	return nil
}

func (ts *TextureSystem) addReference(name string) (*metadata.Texture, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ref, ok := ts.registered[name]
	if !ok {
		return nil, false
	}
	ref.referenceCount++
	return ref.texture, true
}

func (ts *TextureSystem) loadImage(name string) (*metadata.Resource, error) {
	if ts.assetManager == nil {
		return nil, fmt.Errorf("texture '%s': no asset manager configured: %w", name, ErrTextureNotFound)
	}
	res, err := ts.assetManager.LoadAsset(name, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: false})
	if err != nil {
		return nil, fmt.Errorf("texture '%s': %w", name, err)
	}
	return res, nil
}

func (ts *TextureSystem) unload(res *metadata.Resource) {
	if ts.assetManager == nil || res.FullPath == "" {
		return
	}
	if err := ts.assetManager.UnloadAsset(res); err != nil {
		core.LogWarn("failed to unload '%s': %s", res.Name, err)
	}
}

func (ts *TextureSystem) register(name string, res *metadata.Resource, autoRelease bool) (*metadata.Texture, error) {
	defer ts.unload(res)
	data := res.Data.(*metadata.ImageResourceData)

	ts.mu.Lock()
	count := len(ts.registered)
	ts.mu.Unlock()
	if uint32(count) >= ts.config.MaxTextureCount {
		core.LogError("Texture system cannot hold anymore textures. Adjust configuration to allow more.")
		return nil, fmt.Errorf("texture '%s': %w", name, core.ErrCapacity)
	}

	t := &metadata.Texture{
		Name:         name,
		Width:        data.Width,
		Height:       data.Height,
		ChannelCount: data.ChannelCount,
		MinFilter:    ts.config.Filter,
		MagFilter:    ts.config.Filter,
		RepeatU:      metadata.TextureRepeatClampToEdge,
		RepeatV:      metadata.TextureRepeatClampToEdge,
	}
	if data.HasTransparency {
		t.Flags |= metadata.TextureFlagHasTransparency
	}
	t.ID = ts.ids.Acquire(t)
	if err := ts.backend.TextureCreate(data.Pixels, t); err != nil {
		_ = ts.ids.Release(t.ID)
		return nil, fmt.Errorf("texture '%s': %w", name, err)
	}

	ts.mu.Lock()
	ts.registered[name] = &textureReference{
		texture:        t,
		referenceCount: 1,
		autoRelease:    autoRelease,
	}
	ts.mu.Unlock()

	core.LogDebug("Successfully loaded texture '%s' (%dx%d).", name, t.Width, t.Height)
	return t, nil
}

func (ts *TextureSystem) destroyTexture(t *metadata.Texture) error {
	ts.backend.TextureDestroy(t)
	if err := ts.ids.Release(t.ID); err != nil {
		return err
	}
	t.Generation++
	return nil
}
