package comic

import "time"

// Layout describes how the panels of one comic are arranged inside a
// single generated image. Every layout renders vertical 9:16.
type Layout struct {
	ID          string `json:"id"`
	Panels      int    `json:"panels"`
	AspectRatio string `json:"aspectRatio"`
	Arrangement string `json:"arrangement"`
	MangaOrder  bool   `json:"mangaOrder"`
}

var layouts = map[string]Layout{
	"4-panel": {
		ID:          "4-panel",
		Panels:      4,
		AspectRatio: "9:16",
		Arrangement: "4 vertical panels in a single image, arranged top to bottom",
	},
	"3-panel": {
		ID:          "3-panel",
		Panels:      3,
		AspectRatio: "9:16",
		Arrangement: "3 vertical panels in a single image, arranged top to bottom",
	},
	"2-panel-vertical": {
		ID:          "2-panel-vertical",
		Panels:      2,
		AspectRatio: "9:16",
		Arrangement: "2 vertical panels in a single image, arranged top to bottom",
	},
	"4-panel-manga": {
		ID:          "4-panel-manga",
		Panels:      4,
		AspectRatio: "9:16",
		Arrangement: "4 panels in a 2x2 grid in a single vertical image, manga reading order (right to left, top to bottom)",
		MangaOrder:  true,
	},
}

// ArtStyle maps a style id onto the keywords fed to the image model.
type ArtStyle struct {
	ID       string `json:"id"`
	Keywords string `json:"keywords"`
}

var artStyles = map[string]ArtStyle{
	"anime":     {ID: "anime", Keywords: "anime style, vibrant colors, expressive large eyes, clean linework, cel-shaded"},
	"manga":     {ID: "manga", Keywords: "manga style, black and white, screentones, speed lines, dramatic inking"},
	"western":   {ID: "western", Keywords: "western comic book style, bold black outlines, flat colors, dynamic composition"},
	"chibi":     {ID: "chibi", Keywords: "chibi style, super deformed, cute proportions, kawaii, big head small body"},
	"realistic": {ID: "realistic", Keywords: "semi-realistic illustration, detailed shading, painterly style"},
	"sketch":    {ID: "sketch", Keywords: "hand-drawn sketch, loose pencil lines, rough texture, sketch marks"},
}

var colorModes = map[string]string{
	"color":      "full color, vibrant palette",
	"blackwhite": "black and white, grayscale, monochrome",
}

// Character is a reusable comic cast member, persisted as a CHARACTER
// asset row with its name and description packed into the prompt column.
type Character struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Panel is one scene of the strip, generated into the shared image.
type Panel struct {
	Number int    `json:"number"`
	Prompt string `json:"prompt"`
}

// Project collects everything one comic generation needs.
type Project struct {
	LayoutID   string      `json:"layoutId"`
	ArtStyleID string      `json:"artStyleId"`
	ColorMode  string      `json:"colorMode"`
	Characters []Character `json:"characters"`
	Panels     []Panel     `json:"panels"`
}

// Layouts returns the supported layouts, for the options endpoint.
func Layouts() []Layout {
	out := make([]Layout, 0, len(layouts))
	for _, id := range []string{"4-panel", "3-panel", "2-panel-vertical", "4-panel-manga"} {
		out = append(out, layouts[id])
	}
	return out
}
