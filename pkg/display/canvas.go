package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/glog"
)

// Canvas is a drawing surface backed by a panel.
type Canvas interface {
	draw.Image
	// Flush makes everything drawn so far visible.
	Flush() error
}

// Mode selects the Canvas implementation.
type Mode string

// Canvas modes.
const (
	ModeDirect   Mode = "direct"
	ModeBuffered Mode = "buffered"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDirect, ModeBuffered:
		return m, nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// NewCanvas creates the Canvas for mode.
func NewCanvas(mode Mode, width, height uint16, sink SliceDrawer) (Canvas, error) {
	switch mode {
	case ModeDirect:
		return NewDirectCanvas(width, height, sink), nil
	case ModeBuffered:
		return NewBufferedCanvas(width, height, sink), nil
	}
	return nil, fmt.Errorf("unknown display mode %q", string(mode))
}

// BufferedCanvas draws into a Framebuffer and transfers the dirty area
// on Flush.
type BufferedCanvas struct {
	*Framebuffer
	Sink SliceDrawer
}

// NewBufferedCanvas creates a BufferedCanvas.
func NewBufferedCanvas(width, height uint16, sink SliceDrawer) *BufferedCanvas {
	return &BufferedCanvas{Framebuffer: NewFramebuffer(width, height), Sink: sink}
}

// Flush implements Canvas.
func (c *BufferedCanvas) Flush() error {
	return c.Framebuffer.Flush(c.Sink)
}

// DirectCanvas sends every changed pixel to the sink immediately. A
// shadow copy of the panel suppresses unchanged pixels.
type DirectCanvas struct {
	Sink SliceDrawer

	width, height int
	shadow        []uint16
	err           error
}

// NewDirectCanvas creates a DirectCanvas.
func NewDirectCanvas(width, height uint16, sink SliceDrawer) *DirectCanvas {
	return &DirectCanvas{
		Sink:   sink,
		width:  int(width),
		height: int(height),
		shadow: make([]uint16, int(width)*int(height)),
	}
}

// ColorModel implements image.Image.
func (c *DirectCanvas) ColorModel() color.Model { return RGB565Model }

// Bounds implements image.Image.
func (c *DirectCanvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.width, c.height) }

// At implements image.Image.
func (c *DirectCanvas) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Black
	}
	return RGB565(c.shadow[y*c.width+x])
}

// Set implements draw.Image. A failed transfer is reported by the next
// Flush and the pixel is retried on the next Set.
func (c *DirectCanvas) Set(x, y int, col color.Color) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	v := uint16(ToRGB565(col))
	i := y*c.width + x
	if c.shadow[i] == v {
		return
	}
	if err := c.Sink.DrawSlice(uint16(x), uint16(y), uint16(x), uint16(y), []uint16{v}); err != nil {
		if c.err == nil {
			glog.Warningf("display: pixel (%d,%d): %v", x, y, err)
			c.err = err
		}
		return
	}
	c.shadow[i] = v
}

// Flush implements Canvas. It returns the first transfer error since the
// previous Flush.
func (c *DirectCanvas) Flush() error {
	err := c.err
	c.err = nil
	return err
}
