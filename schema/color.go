package schema

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Kind colors used by the dashboard.
var kindPalette = map[string]string{
	"collection": "#4C6EF5",
	"model":      "#40C057",
	"field":      "#FA5252",
}

// FallbackColor is used for kinds without an entry in the palette.
const FallbackColor = "#868E96"

// KindColor returns the fill color for an entity kind.
func KindColor(kind string) colorful.Color {
	hex, ok := kindPalette[strings.ToLower(kind)]
	if !ok {
		hex = FallbackColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		// The palette is static, this only happens if it is edited badly
		c, _ = colorful.Hex(FallbackColor)
	}
	return c
}

// StrokeColor returns a darker shade of the kind color for outlines.
func StrokeColor(kind string) colorful.Color {
	black := colorful.Color{R: 0, G: 0, B: 0}
	return KindColor(kind).BlendLab(black, 0.3).Clamped()
}
