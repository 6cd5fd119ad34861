package metadata

type BitmapFontConfig struct {
	Name         string
	ResourceName string
}

type FontSystemConfig struct {
	BitmapFontConfigs  []*BitmapFontConfig
	MaxBitmapFontCount uint8
}

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type FontData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[rune]*FontGlyph
	Kernings   []*FontKerning
	/** @brief Horizontal advance used for '\t'. */
	TabXAdvance float32
}

type BitmapFontPage struct {
	ID   int8
	Name string
}

type BitmapFontResourceData struct {
	Data  *FontData
	Pages []*BitmapFontPage
}
