package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima/engine/assets/loaders"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrNoLoader      = errors.New("no loader registered")
	ErrClosed        = errors.New("asset manager closed")
)

// AssetInfo describes an indexed file. Name is the slash separated path
// relative to the asset root, without extension.
type AssetInfo struct {
	Name         string
	Path         string
	Type         metadata.ResourceType
	LastModified time.Time
}

type assetKey struct {
	name string
	kind metadata.ResourceType
}

// AssetManager indexes an asset directory, loads files through the
// registered loaders and, when watching, fires EVENT_CODE_ASSET_RELOADED
// with the AssetInfo of every modified file.
type AssetManager struct {
	root    string
	bus     *core.EventBus
	assets  map[assetKey]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewAssetManager(root string, bus *core.EventBus) (*AssetManager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	s, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("asset root '%s' is not a directory", root)
	}

	am := &AssetManager{
		root:    abs,
		bus:     bus,
		assets:  make(map[assetKey]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		done:    make(chan struct{}),
	}

	// Register loaders
	am.RegisterLoader(metadata.ResourceTypeText, &loaders.TextLoader{})
	am.RegisterLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.RegisterLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.RegisterLoader(metadata.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{})

	return am, nil
}

// Initialize indexes every file under the root. With watch set, the
// directory tree is monitored for changes until Shutdown.
func (am *AssetManager) Initialize(watch bool) error {
	if !watch {
		return am.walk(am.root, false)
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.watcher = fsWatch
	if err := am.walk(am.root, true); err != nil {
		fsWatch.Close()
		am.watcher = nil
		return err
	}

	am.wg.Add(1)
	go am.start()
	return nil
}

func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// Lookup returns the indexed file for name and type.
func (am *AssetManager) Lookup(name string, resourceType metadata.ResourceType) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[assetKey{name: name, kind: resourceType}]
	return info, ok
}

// List returns the indexed assets of the given type.
func (am *AssetManager) List(resourceType metadata.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []AssetInfo
	for k, v := range am.assets {
		if k.kind == resourceType {
			out = append(out, v)
		}
	}
	return out
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	am.mutex.RLock()
	if am.isClosed {
		am.mutex.RUnlock()
		return nil, ErrClosed
	}
	asset, exists := am.assets[assetKey{name: name, kind: resourceType}]
	loader, loaderExists := am.loaders[resourceType]
	am.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%s '%s': %w", resourceType, name, ErrAssetNotFound)
	}
	if !loaderExists {
		return nil, fmt.Errorf("%s: %w", resourceType, ErrNoLoader)
	}

	res, err := loader.Load(asset.Path, params)
	if err != nil {
		return nil, err
	}
	res.Name = name
	res.Type = resourceType
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return fmt.Errorf("unload asset: nil resource")
	}
	am.mutex.RLock()
	loader, ok := am.loaders[asset.Type]
	am.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", asset.Type, ErrNoLoader)
	}
	return loader.Unload(asset)
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.watcher == nil {
		return nil
	}
	close(am.done)
	am.wg.Wait()
	return am.watcher.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.watcher.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case err, ok := <-am.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// Can't stat a removed path, so try both the index and the watch list.
		am.removeAsset(e.Name)
		_ = am.watcher.Remove(e.Name)
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	s, err := os.Stat(e.Name)
	if err != nil {
		return
	}
	if s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.walk(e.Name, true); err != nil {
				core.LogWarn("asset watcher: failed to watch '%s': %s", e.Name, err)
			}
		}
		return
	}

	info, ok := am.handleFileEvent(e.Name, s.ModTime())
	if !ok || am.bus == nil {
		return
	}
	core.LogDebug("asset '%s' (%s) changed", info.Name, info.Type)
	am.bus.Fire(core.EVENT_CODE_ASSET_RELOADED, am, info)
}

// walk indexes every file under path and optionally adds each directory
// to the watch list.
func (am *AssetManager) walk(path string, watch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if watch {
				return am.watcher.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath, fi.ModTime())
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, modTime time.Time) (AssetInfo, bool) {
	assetType, ok := DetermineAssetType(path)
	if !ok {
		return AssetInfo{}, false
	}
	name, err := am.assetName(path)
	if err != nil {
		return AssetInfo{}, false
	}

	info := AssetInfo{
		Name:         name,
		Path:         path,
		Type:         assetType,
		LastModified: modTime,
	}

	am.mutex.Lock()
	am.assets[assetKey{name: name, kind: assetType}] = info
	am.mutex.Unlock()
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	assetType, ok := DetermineAssetType(path)
	if !ok {
		return
	}
	name, err := am.assetName(path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	delete(am.assets, assetKey{name: name, kind: assetType})
	am.mutex.Unlock()
}

func (am *AssetManager) assetName(path string) (string, error) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)), nil
}

// DetermineAssetType maps a file extension to the resource type that loads it.
func DetermineAssetType(path string) (metadata.ResourceType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range loaders.ImageExtensions {
		if ext == e {
			return metadata.ResourceTypeImage, true
		}
	}
	switch ext {
	case ".shadercfg":
		return metadata.ResourceTypeShader, true
	case ".fnt":
		return metadata.ResourceTypeBitmapFont, true
	case ".txt", ".glsl", ".vert", ".frag":
		return metadata.ResourceTypeText, true
	}
	return 0, false
}
