package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

// BitmapFontLoader reads AngelCode .fnt descriptors. Page sheets are
// referenced by name and loaded through the image loader.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	if strings.ToLower(filepath.Ext(path)) != ".fnt" {
		return nil, fmt.Errorf("unable to load bitmap font '%s': unsupported file type", path)
	}

	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load bitmap font '%s': %w", path, err)
	}

	return &metadata.Resource{
		FullPath: path,
		Type:     metadata.ResourceTypeBitmapFont,
		Data:     convertDescriptor(font.Descriptor),
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return fmt.Errorf("bitmap font loader: nil resource")
	}
	if data, ok := resource.Data.(*metadata.BitmapFontResourceData); ok {
		data.Data.Glyphs = nil
		data.Data.Kernings = nil
		data.Pages = nil
	}
	resource.Data = nil
	resource.FullPath = ""
	return nil
}

func convertDescriptor(d *bmfont.Descriptor) *metadata.BitmapFontResourceData {
	out := &metadata.BitmapFontResourceData{
		Data: &metadata.FontData{
			Face:       d.Info.Face,
			Size:       uint32(d.Info.Size),
			LineHeight: int32(d.Common.LineHeight),
			Baseline:   int32(d.Common.Base),
			AtlasSizeX: int32(d.Common.ScaleW),
			AtlasSizeY: int32(d.Common.ScaleH),
			Glyphs:     make(map[rune]*metadata.FontGlyph, len(d.Chars)),
			Kernings:   make([]*metadata.FontKerning, 0, len(d.Kerning)),
		},
		Pages: make([]*metadata.BitmapFontPage, 0, len(d.Pages)),
	}

	for _, p := range d.Pages {
		out.Pages = append(out.Pages, &metadata.BitmapFontPage{
			ID:   int8(p.ID),
			Name: p.File,
		})
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].ID < out.Pages[j].ID })

	for _, g := range d.Chars {
		out.Data.Glyphs[rune(g.ID)] = &metadata.FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		}
	}

	for pair, k := range d.Kerning {
		out.Data.Kernings = append(out.Data.Kernings, &metadata.FontKerning{
			Codepoint0: rune(pair.First),
			Codepoint1: rune(pair.Second),
			Amount:     int16(k.Amount),
		})
	}
	sort.Slice(out.Data.Kernings, func(i, j int) bool {
		a, b := out.Data.Kernings[i], out.Data.Kernings[j]
		if a.Codepoint0 != b.Codepoint0 {
			return a.Codepoint0 < b.Codepoint0
		}
		return a.Codepoint1 < b.Codepoint1
	})

	// Tabs advance by four spaces when the font has a space glyph.
	if space, ok := out.Data.Glyphs[' ']; ok {
		out.Data.TabXAdvance = float32(space.XAdvance) * 4
	}

	return out
}
