package rowpdf

import (
	"log/slog"

	"github.com/gardar/lineitems/pkg/extract"
)

// Config holds rendering options for the row overlay
type Config struct {
	ShowTokens bool               // Draw every OCR token box in gray
	LayerName  string             // Base name of the row layer (page number will be appended)
	Margin     float64            // Space added right of and below the furthest box
	LineWidth  float64            // Stroke width of line-item boxes
	Palette    []RGB              // Row colors, cycled by row number
	Font       FontConfig         // Font for row labels
	PageSizes  []extract.PageSize // Known page extents; zero or missing ones are derived from the boxes
	Background []byte             // Original PDF drawn under the boxes, each page scaled to the page width
	Logger     *slog.Logger       // Custom logger (nil = slog.Default())
}

// RGB is a stroke or text color
type RGB struct{ R, G, B int }

// FontConfig contains font settings for row labels
type FontConfig struct {
	Name  string  // Core font name (e.g., "Helvetica")
	Style string  // Font style ("", "B", "I", "BI")
	Size  float64 // Font size in points
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		ShowTokens: true,
		LayerName:  "Line item rows", // Will be formatted as "Line item rows (Page X)" in the final PDF
		Margin:     20,
		LineWidth:  1.5,
		Palette:    DefaultPalette,
		Font:       DefaultFont,
	}
}

// DefaultPalette alternates hues so neighbouring rows stand apart
var DefaultPalette = []RGB{
	{R: 214, G: 39, B: 40},
	{R: 31, G: 119, B: 180},
	{R: 44, G: 160, B: 44},
	{R: 255, G: 127, B: 14},
	{R: 148, G: 103, B: 189},
	{R: 23, G: 190, B: 207},
}

// DefaultFont is a core font, so no font files are needed
var DefaultFont = FontConfig{
	Name:  "Helvetica",
	Style: "B",
	Size:  8,
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) color(row int) RGB {
	if len(c.Palette) == 0 {
		return DefaultPalette[row%len(DefaultPalette)]
	}
	return c.Palette[row%len(c.Palette)]
}
