package display

import (
	"errors"
	"image"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transfer struct {
	x0, y0, x1, y1 uint16
	pixels         []uint16
}

type recordSink struct {
	transfers []transfer
	err       error
}

func (s *recordSink) DrawSlice(x0, y0, x1, y1 uint16, pixels []uint16) error {
	if err := checkSlice(x0, y0, x1, y1, pixels); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	s.transfers = append(s.transfers, transfer{x0, y0, x1, y1, append([]uint16(nil), pixels...)})
	return nil
}

func TestDirtyArea(t *testing.T) {
	var a DirtyArea
	require.False(t, a.IsDirty())
	require.Equal(t, image.Rectangle{}, a.Rect())

	a.MarkDirty(10, 20)
	require.True(t, a.IsDirty())
	assert.Equal(t, image.Rect(10, 20, 11, 21), a.Rect())

	points := []image.Point{{3, 40}, {15, 22}, {12, 5}}
	for _, p := range points {
		a.MarkDirty(uint16(p.X), uint16(p.Y))
	}
	assert.Equal(t, uint16(3), a.X0())
	assert.Equal(t, uint16(5), a.Y0())
	assert.Equal(t, uint16(13), a.Width())
	assert.Equal(t, uint16(36), a.Height())
	for _, p := range append(points, image.Pt(10, 20)) {
		assert.True(t, p.In(a.Rect()), "%v not in %v", p, a.Rect())
	}

	a.Clear()
	assert.False(t, a.IsDirty())
	a.MarkDirty(0, 0)
	assert.Equal(t, image.Rect(0, 0, 1, 1), a.Rect())
}

func TestWriteRedundant(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Write(2, 1, Black)
	assert.False(t, fb.IsDirty())

	fb.Write(2, 1, Red)
	fb.Write(2, 1, Red)
	d := fb.Dirty()
	assert.Equal(t, image.Rect(2, 1, 3, 2), d.Rect())

	fb.Write(-1, 0, Red)
	fb.Write(8, 0, Red)
	fb.Write(0, 4, Red)
	d = fb.Dirty()
	assert.Equal(t, image.Rect(2, 1, 3, 2), d.Rect())
	assert.Equal(t, Black, fb.Pixel(8, 0))
}

func TestFlushContiguous(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Write(0, 1, Red)
	fb.Write(7, 2, Blue)
	sink := &recordSink{}
	require.NoError(t, fb.Flush(sink))
	require.Len(t, sink.transfers, 1)
	tr := sink.transfers[0]
	assert.Equal(t, [4]uint16{0, 1, 7, 2}, [4]uint16{tr.x0, tr.y0, tr.x1, tr.y1})
	require.Len(t, tr.pixels, 16)
	assert.Equal(t, uint16(Red), tr.pixels[0])
	assert.Equal(t, uint16(Blue), tr.pixels[15])
	assert.False(t, fb.HasExtraBuffer())

	assert.False(t, fb.IsDirty())
	require.NoError(t, fb.Flush(sink))
	assert.Len(t, sink.transfers, 1)
}

func TestFlushCopyBuffer(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Write(2, 1, Red)
	fb.Write(4, 2, Green)
	sink := &recordSink{}
	assert.False(t, fb.HasExtraBuffer())
	require.NoError(t, fb.Flush(sink))
	require.True(t, fb.HasExtraBuffer())
	extra := fb.extra

	require.Len(t, sink.transfers, 1)
	tr := sink.transfers[0]
	assert.Equal(t, [4]uint16{2, 1, 4, 2}, [4]uint16{tr.x0, tr.y0, tr.x1, tr.y1})
	assert.Equal(t, []uint16{uint16(Red), 0, 0, 0, 0, uint16(Green)}, tr.pixels)

	fb.Write(5, 3, White)
	require.NoError(t, fb.Flush(sink))
	require.Len(t, sink.transfers, 2)
	assert.Equal(t, []uint16{uint16(White)}, sink.transfers[1].pixels)
	// allocated once
	assert.Same(t, &extra[0], &fb.extra[0])
}

func TestFlushRowSlices(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Strategy = RowSlices
	fb.Write(1, 0, Red)
	fb.Write(3, 2, Blue)
	sink := &recordSink{}
	require.NoError(t, fb.Flush(sink))
	require.Len(t, sink.transfers, 3)
	for n, tr := range sink.transfers {
		assert.Equal(t, uint16(n), tr.y0)
		assert.Equal(t, tr.y0, tr.y1)
		assert.Len(t, tr.pixels, 3)
	}
	assert.Equal(t, uint16(Blue), sink.transfers[2].pixels[2])
	assert.False(t, fb.HasExtraBuffer())
}

func TestFlushContiguousOverride(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Strategy = Contiguous
	fb.Write(3, 3, Red)
	sink := &recordSink{}
	require.NoError(t, fb.Flush(sink))
	require.Len(t, sink.transfers, 1)
	tr := sink.transfers[0]
	assert.Equal(t, [4]uint16{0, 3, 7, 3}, [4]uint16{tr.x0, tr.y0, tr.x1, tr.y1})
}

func TestFlushErrorKeepsDirty(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	fb.Write(1, 1, Red)
	sink := &recordSink{err: errors.New("spi busy")}
	require.ErrorIs(t, fb.Flush(sink), sink.err)
	assert.True(t, fb.IsDirty())

	sink.err = nil
	require.NoError(t, fb.Flush(sink))
	assert.Len(t, sink.transfers, 1)
	assert.False(t, fb.IsDirty())
}

func TestFramebufferDrawImage(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	var dst draw.Image = fb
	draw.Draw(dst, image.Rect(2, 1, 4, 3), image.NewUniform(White), image.Point{}, draw.Src)
	d := fb.Dirty()
	assert.Equal(t, image.Rect(2, 1, 4, 3), d.Rect())
	assert.Equal(t, White, fb.At(3, 2))
	assert.Equal(t, Black, fb.At(4, 2))
}

func TestRGB565(t *testing.T) {
	for _, c := range []RGB565{Black, White, Red, Green, Blue, 0x1234} {
		assert.Equal(t, c, ToRGB565(c))
		r, g, b, a := c.RGBA()
		assert.Equal(t, c, ToRGB565(rgba64(r, g, b, a)))
	}
	r, g, b, _ := Red.RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}
