package systems

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spaghettifunk/anima/engine/assets"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/g2d"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

var ErrFontNotFound = errors.New("font not found")

type kerningPair struct {
	first, second rune
}

// BitmapFont is a loaded AngelCode font with one texture per page.
type BitmapFont struct {
	Name  string
	Data  *metadata.FontData
	Pages []*metadata.Texture

	pageNames      []string
	kernings       map[kerningPair]int16
	referenceCount uint32
}

// Kerning returns the extra advance between two codepoints.
func (f *BitmapFont) Kerning(first, second rune) float32 {
	return float32(f.kernings[kerningPair{first, second}])
}

// GlyphRun holds packed quads that share a page texture.
type GlyphRun struct {
	Texture  *metadata.Texture
	Vertices []float32
}

/**
 * @brief Loads bitmap fonts and turns text into sprite quads that any
 * batch or the sprite cache can consume.
 */
type FontSystem struct {
	config       *metadata.FontSystemConfig
	textures     *TextureSystem
	assetManager *assets.AssetManager
	fonts        map[string]*BitmapFont
}

func NewFontSystem(config *metadata.FontSystemConfig, ts *TextureSystem, am *assets.AssetManager) (*FontSystem, error) {
	if config.MaxBitmapFontCount == 0 {
		return nil, fmt.Errorf("font system config: MaxBitmapFontCount must be > 0: %w", core.ErrInvalidArgument)
	}
	if ts == nil || am == nil {
		return nil, fmt.Errorf("font system requires a texture system and an asset manager: %w", core.ErrInvalidArgument)
	}
	return &FontSystem{
		config:       config,
		textures:     ts,
		assetManager: am,
		fonts:        make(map[string]*BitmapFont),
	}, nil
}

// Initialize loads every font listed in the configuration.
func (fs *FontSystem) Initialize() error {
	for _, cfg := range fs.config.BitmapFontConfigs {
		if err := fs.LoadBitmapFont(cfg); err != nil {
			return err
		}
	}
	return nil
}

// LoadBitmapFont reads the .fnt asset named by config.ResourceName and
// acquires its page textures, which must sit next to it.
func (fs *FontSystem) LoadBitmapFont(config *metadata.BitmapFontConfig) error {
	if _, ok := fs.fonts[config.Name]; ok {
		core.LogWarn("Font named '%s' already exists and will not be loaded again.", config.Name)
		return nil
	}
	if len(fs.fonts) >= int(fs.config.MaxBitmapFontCount) {
		return fmt.Errorf("font '%s': %w", config.Name, core.ErrCapacity)
	}

	res, err := fs.assetManager.LoadAsset(config.ResourceName, metadata.ResourceTypeBitmapFont, nil)
	if err != nil {
		return fmt.Errorf("failed to load font '%s': %w", config.Name, err)
	}
	defer func() {
		if err := fs.assetManager.UnloadAsset(res); err != nil {
			core.LogWarn("failed to unload font resource '%s': %s", res.Name, err)
		}
	}()
	data := res.Data.(*metadata.BitmapFontResourceData)

	font := &BitmapFont{
		Name:     config.Name,
		Data:     data.Data,
		kernings: make(map[kerningPair]int16, len(data.Data.Kernings)),
	}
	for _, k := range data.Data.Kernings {
		font.kernings[kerningPair{k.Codepoint0, k.Codepoint1}] = k.Amount
	}

	dir := path.Dir(config.ResourceName)
	for _, page := range data.Pages {
		if int(page.ID) != len(font.Pages) {
			fs.releasePages(font)
			return fmt.Errorf("font '%s': page ids must be contiguous, got %d: %w", config.Name, page.ID, core.ErrInvalidArgument)
		}
		name := path.Join(dir, strings.TrimSuffix(page.Name, path.Ext(page.Name)))
		t, err := fs.textures.Acquire(name, true)
		if err != nil {
			fs.releasePages(font)
			return fmt.Errorf("font '%s' page %d: %w", config.Name, page.ID, err)
		}
		font.Pages = append(font.Pages, t)
		font.pageNames = append(font.pageNames, name)
	}
	if len(font.Pages) == 0 {
		return fmt.Errorf("font '%s' has no pages: %w", config.Name, core.ErrInvalidArgument)
	}

	fs.fonts[config.Name] = font
	core.LogDebug("Loaded bitmap font '%s' (%d glyphs, %d pages).", config.Name, len(font.Data.Glyphs), len(font.Pages))
	return nil
}

func (fs *FontSystem) releasePages(font *BitmapFont) {
	for _, name := range font.pageNames {
		if err := fs.textures.Release(name); err != nil {
			core.LogWarn("font '%s': %s", font.Name, err)
		}
	}
	font.Pages = nil
	font.pageNames = nil
}

func (fs *FontSystem) Acquire(name string) (*BitmapFont, error) {
	font, ok := fs.fonts[name]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", name, ErrFontNotFound)
	}
	font.referenceCount++
	return font, nil
}

func (fs *FontSystem) Release(name string) error {
	font, ok := fs.fonts[name]
	if !ok {
		return fmt.Errorf("'%s': %w", name, ErrFontNotFound)
	}
	if font.referenceCount > 0 {
		font.referenceCount--
	}
	return nil
}

func (fs *FontSystem) Shutdown() error {
	for name, font := range fs.fonts {
		fs.releasePages(font)
		delete(fs.fonts, name)
	}
	return nil
}

// Layout packs one quad per visible glyph. (x, y) is the top-left corner
// of the first line; y grows upwards and each line moves down by LineHeight.
func (fs *FontSystem) Layout(font *BitmapFont, text string, x, y, color float32) []GlyphRun {
	var runs []GlyphRun
	atlasW := float32(font.Data.AtlasSizeX)
	atlasH := float32(font.Data.AtlasSizeY)

	penX, penY := x, y
	var prev rune = -1
	for _, r := range text {
		switch r {
		case '\n':
			penX = x
			penY -= float32(font.Data.LineHeight)
			prev = -1
			continue
		case '\t':
			penX += font.Data.TabXAdvance
			prev = -1
			continue
		}

		g, ok := font.Data.Glyphs[r]
		if !ok {
			core.LogWarn("font '%s' has no glyph for %q", font.Name, r)
			prev = -1
			continue
		}
		if prev >= 0 {
			penX += font.Kerning(prev, r)
		}
		prev = r

		if g.Width > 0 && g.Height > 0 && int(g.PageID) < len(font.Pages) {
			page := font.Pages[g.PageID]
			if len(runs) == 0 || runs[len(runs)-1].Texture != page {
				runs = append(runs, GlyphRun{Texture: page})
			}
			run := &runs[len(runs)-1]

			w, h := float32(g.Width), float32(g.Height)
			gx := penX + float32(g.XOffset)
			gy := penY - float32(g.YOffset) - h
			u, u2 := float32(g.X)/atlasW, (float32(g.X)+w)/atlasW
			vTop, vBottom := float32(g.Y)/atlasH, (float32(g.Y)+h)/atlasH

			start := len(run.Vertices)
			run.Vertices = append(run.Vertices, make([]float32, g2d.QuadSize)...)
			g2d.PackRect(run.Vertices[start:], gx, gy, w, h, color, u, vBottom, u2, vTop)
		}
		penX += float32(g.XAdvance)
	}
	return runs
}

// Measure returns the width of the widest line and the total height.
func (fs *FontSystem) Measure(font *BitmapFont, text string) (float32, float32) {
	var width, lineWidth float32
	lines := 1
	var prev rune = -1
	for _, r := range text {
		switch r {
		case '\n':
			lines++
			lineWidth = 0
			prev = -1
			continue
		case '\t':
			lineWidth += font.Data.TabXAdvance
			prev = -1
		default:
			g, ok := font.Data.Glyphs[r]
			if !ok {
				prev = -1
				continue
			}
			if prev >= 0 {
				lineWidth += font.Kerning(prev, r)
			}
			lineWidth += float32(g.XAdvance)
			prev = r
		}
		if lineWidth > width {
			width = lineWidth
		}
	}
	return width, float32(lines) * float32(font.Data.LineHeight)
}

// DrawText lays out text with the batch's current colour and draws it.
func (fs *FontSystem) DrawText(batch g2d.Batch, font *BitmapFont, text string, x, y float32) error {
	for _, run := range fs.Layout(font, text, x, y, batch.PackedColor()) {
		if err := batch.DrawVertices(run.Texture, run.Vertices, 0, len(run.Vertices)); err != nil {
			return err
		}
	}
	return nil
}

// CacheText adds the text to the sprite cache's open cache.
func (fs *FontSystem) CacheText(cache *g2d.SpriteCache, font *BitmapFont, text string, x, y float32) error {
	for _, run := range fs.Layout(font, text, x, y, cache.Color().ToFloatBits()) {
		if err := cache.AddVertices(run.Texture, run.Vertices, 0, len(run.Vertices)); err != nil {
			return err
		}
	}
	return nil
}
