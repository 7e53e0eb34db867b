package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"sync"

	"periph.io/x/conn/v3/display"
)

// SliceDrawer receives a rectangle of RGB565 pixels. Coordinates are
// inclusive and pixels are row-major with len(pixels) equal to
// (x1-x0+1)*(y1-y0+1).
type SliceDrawer interface {
	DrawSlice(x0, y0, x1, y1 uint16, pixels []uint16) error
}

// SliceDrawerFunc is the func form of SliceDrawer.
type SliceDrawerFunc func(x0, y0, x1, y1 uint16, pixels []uint16) error

// DrawSlice implements SliceDrawer.
func (f SliceDrawerFunc) DrawSlice(x0, y0, x1, y1 uint16, pixels []uint16) error {
	return f(x0, y0, x1, y1, pixels)
}

func checkSlice(x0, y0, x1, y1 uint16, pixels []uint16) error {
	if x1 < x0 || y1 < y0 {
		return fmt.Errorf("invalid slice (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	}
	if n := (int(x1-x0) + 1) * (int(y1-y0) + 1); n != len(pixels) {
		return fmt.Errorf("slice (%d,%d)-(%d,%d) needs %d pixels, got %d", x0, y0, x1, y1, n, len(pixels))
	}
	return nil
}

// sliceImage exposes a pixel slice as an image.Image at the origin.
type sliceImage struct {
	w, h   int
	pixels []uint16
}

func (s *sliceImage) ColorModel() color.Model { return RGB565Model }

func (s *sliceImage) Bounds() image.Rectangle { return image.Rect(0, 0, s.w, s.h) }

func (s *sliceImage) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return Black
	}
	return RGB565(s.pixels[y*s.w+x])
}

// DrawerSink forwards slices to a periph display.Drawer, e.g. a panel
// driver from periph.io/x/devices.
type DrawerSink struct {
	Drawer display.Drawer
}

// DrawSlice implements SliceDrawer.
func (s *DrawerSink) DrawSlice(x0, y0, x1, y1 uint16, pixels []uint16) error {
	if err := checkSlice(x0, y0, x1, y1, pixels); err != nil {
		return err
	}
	src := &sliceImage{w: int(x1-x0) + 1, h: int(y1-y0) + 1, pixels: pixels}
	dst := image.Rect(int(x0), int(y0), int(x1)+1, int(y1)+1)
	return s.Drawer.Draw(dst, src, image.Point{})
}

// ImageSink renders slices into memory. It is the panel of the simulator
// and can be dumped as PNG.
type ImageSink struct {
	lock      sync.Mutex
	img       *image.RGBA
	transfers int
}

// NewImageSink creates an ImageSink of the given size.
func NewImageSink(width, height int) *ImageSink {
	return &ImageSink{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// DrawSlice implements SliceDrawer.
func (s *ImageSink) DrawSlice(x0, y0, x1, y1 uint16, pixels []uint16) error {
	if err := checkSlice(x0, y0, x1, y1, pixels); err != nil {
		return err
	}
	dst := image.Rect(int(x0), int(y0), int(x1)+1, int(y1)+1)
	s.lock.Lock()
	defer s.lock.Unlock()
	if !dst.In(s.img.Bounds()) {
		return fmt.Errorf("slice %v outside of %v", dst, s.img.Bounds())
	}
	src := &sliceImage{w: dst.Dx(), h: dst.Dy(), pixels: pixels}
	draw.Draw(s.img, dst, src, image.Point{}, draw.Src)
	s.transfers++
	return nil
}

// Transfers returns the number of slices drawn.
func (s *ImageSink) Transfers() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.transfers
}

// Snapshot returns a copy of the rendered image.
func (s *ImageSink) Snapshot() *image.RGBA {
	s.lock.Lock()
	defer s.lock.Unlock()
	img := image.NewRGBA(s.img.Bounds())
	copy(img.Pix, s.img.Pix)
	return img
}

// SavePNG writes the rendered image to a file.
func (s *ImageSink) SavePNG(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err = png.Encode(f, s.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
