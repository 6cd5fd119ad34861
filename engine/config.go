package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
	"github.com/spaghettifunk/anima/engine/systems"
	"gopkg.in/yaml.v3"
)

// Largest polygon batch vertex count addressable with 16-bit indices.
const MaxPolygonVertices = 32767

var ErrInvalidConfig = errors.New("invalid configuration")

type WindowConfig struct {
	// The application name used in windowing, if applicable.
	Title string `toml:"title" yaml:"title"`
	// Window starting position, if applicable.
	X int `toml:"x" yaml:"x"`
	Y int `toml:"y" yaml:"y"`
	// Window starting size.
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

type BatchConfig struct {
	// Sprites per SpriteBatch flush.
	Size                int `toml:"size" yaml:"size"`
	PolygonMaxVertices  int `toml:"polygon_max_vertices" yaml:"polygon_max_vertices"`
	PolygonMaxTriangles int `toml:"polygon_max_triangles" yaml:"polygon_max_triangles"`
	// Sprites the SpriteCache can store across all caches.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`
}

type FontConfig struct {
	Name     string `toml:"name" yaml:"name"`
	Resource string `toml:"resource" yaml:"resource"`
}

type AssetsConfig struct {
	// Root is resolved relative to the config file. Empty disables assets.
	Root  string       `toml:"root" yaml:"root"`
	Watch bool         `toml:"watch" yaml:"watch"`
	Fonts []FontConfig `toml:"fonts" yaml:"fonts"`
}

type JobsConfig struct {
	Workers   int `toml:"workers" yaml:"workers"`
	QueueSize int `toml:"queue_size" yaml:"queue_size"`
}

type ApplicationConfig struct {
	Window   WindowConfig `toml:"window" yaml:"window"`
	Renderer string       `toml:"renderer" yaml:"renderer"`
	Batch    BatchConfig  `toml:"batch" yaml:"batch"`
	Assets   AssetsConfig `toml:"assets" yaml:"assets"`
	Jobs     JobsConfig   `toml:"jobs" yaml:"jobs"`
	LogLevel string       `toml:"log_level" yaml:"log_level"`
	// TargetFPS caps the frame rate when LimitFrames is set.
	TargetFPS   int  `toml:"target_fps" yaml:"target_fps"`
	LimitFrames bool `toml:"limit_frames" yaml:"limit_frames"`
	// Frames to wait after a window resize before the renderer follows.
	ResizeSettleFrames uint8 `toml:"resize_settle_frames" yaml:"resize_settle_frames"`
}

// DefaultApplicationConfig returns the values used for keys missing from a
// configuration file.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Title:  "Anima",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Renderer: renderer.Headless.String(),
		Batch: BatchConfig{
			Size:                g2d.DefaultBatchSize,
			PolygonMaxVertices:  2000,
			PolygonMaxTriangles: 4000,
			CacheSize:           g2d.DefaultBatchSize,
		},
		Jobs: JobsConfig{
			Workers:   2,
			QueueSize: 64,
		},
		LogLevel:           core.LogLevelInfo.String(),
		TargetFPS:          60,
		ResizeSettleFrames: systems.DefaultResizeSettleFrames,
	}
}

// LoadApplicationConfig reads a .toml, .yaml or .yml file over the
// defaults and validates the result. Unknown keys are rejected.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultApplicationConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("config '%s': %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// an empty document keeps the defaults
		if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config '%s': unsupported extension '%s': %w", path, ext, ErrInvalidConfig)
	}

	if config.Assets.Root != "" && !filepath.IsAbs(config.Assets.Root) {
		config.Assets.Root = filepath.Join(filepath.Dir(path), config.Assets.Root)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	core.LogDebug("loaded configuration from '%s'", path)
	return config, nil
}

// Validate checks the limits the batches enforce at construction so a bad
// file fails before any system is created.
func (c *ApplicationConfig) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Batch.Size < 1 || c.Batch.Size > g2d.MaxSpriteBatchSize {
		errs = append(errs, fmt.Errorf("batch.size %d must be in [1, %d]", c.Batch.Size, g2d.MaxSpriteBatchSize))
	}
	if c.Batch.CacheSize < 1 || c.Batch.CacheSize > g2d.MaxSpriteBatchSize {
		errs = append(errs, fmt.Errorf("batch.cache_size %d must be in [1, %d]", c.Batch.CacheSize, g2d.MaxSpriteBatchSize))
	}
	if c.Batch.PolygonMaxVertices < 1 || c.Batch.PolygonMaxVertices > MaxPolygonVertices {
		errs = append(errs, fmt.Errorf("batch.polygon_max_vertices %d must be in [1, %d]", c.Batch.PolygonMaxVertices, MaxPolygonVertices))
	}
	if c.Batch.PolygonMaxTriangles < 1 {
		errs = append(errs, fmt.Errorf("batch.polygon_max_triangles %d must be positive", c.Batch.PolygonMaxTriangles))
	}
	if c.Jobs.Workers < 1 {
		errs = append(errs, fmt.Errorf("jobs.workers %d must be positive", c.Jobs.Workers))
	}
	if c.Jobs.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("jobs.queue_size %d must not be negative", c.Jobs.QueueSize))
	}
	if c.TargetFPS < 1 {
		errs = append(errs, fmt.Errorf("target_fps %d must be positive", c.TargetFPS))
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := renderer.ParseRendererType(c.Renderer); err != nil {
		errs = append(errs, err)
	}
	for i, f := range c.Assets.Fonts {
		if f.Name == "" || f.Resource == "" {
			errs = append(errs, fmt.Errorf("assets.fonts[%d] needs a name and a resource", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LogLevelValue returns the parsed log level. Call after Validate.
func (c *ApplicationConfig) LogLevelValue() core.LogLevel {
	level, _ := core.ParseLogLevel(c.LogLevel)
	return level
}

// SystemManagerConfig converts the file layout into the systems' configs.
func (c *ApplicationConfig) SystemManagerConfig() (*systems.SystemManagerConfig, error) {
	rendererType, err := renderer.ParseRendererType(c.Renderer)
	if err != nil {
		return nil, err
	}
	fonts := make([]*metadata.BitmapFontConfig, 0, len(c.Assets.Fonts))
	for _, f := range c.Assets.Fonts {
		fonts = append(fonts, &metadata.BitmapFontConfig{Name: f.Name, ResourceName: f.Resource})
	}
	return &systems.SystemManagerConfig{
		Renderer: systems.RendererSystemConfig{
			AppName:             c.Window.Title,
			Width:               c.Window.Width,
			Height:              c.Window.Height,
			Type:                rendererType,
			BatchSize:           c.Batch.Size,
			PolygonMaxVertices:  c.Batch.PolygonMaxVertices,
			PolygonMaxTriangles: c.Batch.PolygonMaxTriangles,
			CacheSize:           c.Batch.CacheSize,
			ResizeSettleFrames:  c.ResizeSettleFrames,
		},
		Jobs: systems.JobSystemConfig{
			WorkerCount: c.Jobs.Workers,
			QueueSize:   c.Jobs.QueueSize,
		},
		Textures: systems.TextureSystemConfig{
			MaxTextureCount: 256,
			Filter:          metadata.TextureFilterModeLinear,
		},
		Fonts: metadata.FontSystemConfig{
			MaxBitmapFontCount: 16,
			BitmapFontConfigs:  fonts,
		},
		AssetRoot:   c.Assets.Root,
		WatchAssets: c.Assets.Watch,
	}, nil
}
