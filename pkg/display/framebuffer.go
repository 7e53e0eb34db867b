package display

import (
	"fmt"
	"image"
	"image/color"
)

// Default panel size.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

// FlushStrategy selects how a dirty area is transferred.
type FlushStrategy int

// Flush strategies.
const (
	// Auto uses Contiguous for full width areas and CopyBuffer otherwise.
	Auto FlushStrategy = iota
	// Contiguous sends all dirty rows at full width in one transfer.
	Contiguous
	// CopyBuffer packs the dirty rows into a secondary buffer and sends
	// them in one transfer.
	CopyBuffer
	// RowSlices sends one transfer per dirty row.
	RowSlices
)

func (s FlushStrategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case Contiguous:
		return "contiguous"
	case CopyBuffer:
		return "copy-buffer"
	case RowSlices:
		return "row-slices"
	}
	return fmt.Sprintf("FlushStrategy(%d)", int(s))
}

// Framebuffer is an in-memory RGB565 frame which only sends the changed
// area on Flush. It implements draw.Image.
type Framebuffer struct {
	// Strategy overrides the flush strategy when not Auto.
	Strategy FlushStrategy

	width, height uint16
	current       []uint16
	extra         []uint16
	dirty         DirtyArea
}

// NewFramebuffer creates a black Framebuffer.
func NewFramebuffer(width, height uint16) *Framebuffer {
	if width == 0 || height == 0 {
		panic(fmt.Sprintf("invalid framebuffer size %dx%d", width, height))
	}
	return &Framebuffer{
		width:   width,
		height:  height,
		current: make([]uint16, int(width)*int(height)),
	}
}

// Width of the frame.
func (f *Framebuffer) Width() uint16 { return f.width }

// Height of the frame.
func (f *Framebuffer) Height() uint16 { return f.height }

func (f *Framebuffer) index(x, y uint16) int {
	return int(y)*int(f.width) + int(x)
}

// Write sets one pixel. Out of range pixels are ignored and writing the
// stored color again leaves the frame clean.
func (f *Framebuffer) Write(x, y int, c RGB565) {
	if x < 0 || y < 0 || x >= int(f.width) || y >= int(f.height) {
		return
	}
	i := f.index(uint16(x), uint16(y))
	if f.current[i] == uint16(c) {
		return
	}
	f.current[i] = uint16(c)
	f.dirty.MarkDirty(uint16(x), uint16(y))
}

// Pixel returns the stored color.
func (f *Framebuffer) Pixel(x, y int) RGB565 {
	if x < 0 || y < 0 || x >= int(f.width) || y >= int(f.height) {
		return Black
	}
	return RGB565(f.current[f.index(uint16(x), uint16(y))])
}

// Fill sets every pixel.
func (f *Framebuffer) Fill(c RGB565) {
	for y := 0; y < int(f.height); y++ {
		for x := 0; x < int(f.width); x++ {
			f.Write(x, y, c)
		}
	}
}

// IsDirty reports whether a Flush would transfer anything.
func (f *Framebuffer) IsDirty() bool {
	return f.dirty.IsDirty()
}

// Dirty returns the area pending for the next Flush.
func (f *Framebuffer) Dirty() DirtyArea {
	return f.dirty
}

// HasExtraBuffer reports whether the CopyBuffer buffer was allocated.
func (f *Framebuffer) HasExtraBuffer() bool {
	return f.extra != nil
}

// ColorModel implements image.Image.
func (f *Framebuffer) ColorModel() color.Model { return RGB565Model }

// Bounds implements image.Image.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(f.width), int(f.height))
}

// At implements image.Image.
func (f *Framebuffer) At(x, y int) color.Color { return f.Pixel(x, y) }

// Set implements draw.Image.
func (f *Framebuffer) Set(x, y int, c color.Color) { f.Write(x, y, ToRGB565(c)) }

func (f *Framebuffer) strategy() FlushStrategy {
	if f.Strategy != Auto {
		return f.Strategy
	}
	if f.dirty.Width() == f.width {
		return Contiguous
	}
	return CopyBuffer
}

// Flush sends the dirty area to sink. On a transfer error the area stays
// dirty for the next Flush.
func (f *Framebuffer) Flush(sink SliceDrawer) error {
	if !f.dirty.IsDirty() {
		return nil
	}
	strategy := f.strategy()
	x0, y0 := f.dirty.X0(), f.dirty.Y0()
	w, h := f.dirty.Width(), f.dirty.Height()
	if strategy == Contiguous {
		x0, w = 0, f.width
	}
	if x0 >= f.width || y0 >= f.height || w == 0 || w > f.width || h == 0 || h > f.height {
		panic(fmt.Sprintf("corrupted dirty area (%d,%d) %dx%d", x0, y0, w, h))
	}
	x1, y1 := x0+w-1, y0+h-1

	var err error
	switch strategy {
	case Contiguous:
		err = sink.DrawSlice(x0, y0, x1, y1, f.current[f.index(x0, y0):f.index(x1, y1)+1])
	case CopyBuffer:
		if f.extra == nil {
			f.extra = make([]uint16, len(f.current))
		}
		n := int(w)
		for row := 0; row < int(h); row++ {
			start := f.index(x0, y0+uint16(row))
			copy(f.extra[row*n:(row+1)*n], f.current[start:start+n])
		}
		err = sink.DrawSlice(x0, y0, x1, y1, f.extra[:n*int(h)])
	case RowSlices:
		for y := y0; y <= y1 && err == nil; y++ {
			err = sink.DrawSlice(x0, y, x1, y, f.current[f.index(x0, y):f.index(x1, y)+1])
		}
	default:
		panic(fmt.Sprintf("unknown flush strategy %v", strategy))
	}
	if err != nil {
		return err
	}
	f.dirty.Clear()
	return nil
}
