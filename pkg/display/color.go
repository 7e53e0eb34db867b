package display

import "image/color"

// RGB565 is a 16-bit color with 5 bits red, 6 bits green and 5 bits blue.
type RGB565 uint16

// Some colors.
const (
	Black RGB565 = 0x0000
	White RGB565 = 0xffff
	Red   RGB565 = 0xf800
	Green RGB565 = 0x07e0
	Blue  RGB565 = 0x001f
)

// RGBA implements color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f
	r = (r5<<11 | r5<<6 | r5<<1) | r5>>4
	g = (g6<<10 | g6<<4) | g6>>2
	b = (b5<<11 | b5<<6 | b5<<1) | b5>>4
	return r, g, b, 0xffff
}

// RGB565Model converts any color to RGB565.
var RGB565Model = color.ModelFunc(func(c color.Color) color.Color {
	return ToRGB565(c)
})

// ToRGB565 converts c, ignoring alpha.
func ToRGB565(c color.Color) RGB565 {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565((r>>11)<<11 | (g>>10)<<5 | b>>11)
}
