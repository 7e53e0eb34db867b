package display

import "image"

// DirtyArea is the bounding box of pixels changed since the last flush.
// The max bounds are exclusive; an empty area has xmax == 0.
type DirtyArea struct {
	xmin, xmax uint16
	ymin, ymax uint16
}

// MarkDirty grows the area to include (x, y).
func (a *DirtyArea) MarkDirty(x, y uint16) {
	if !a.IsDirty() {
		a.xmin, a.xmax = x, x+1
		a.ymin, a.ymax = y, y+1
		return
	}
	if x < a.xmin {
		a.xmin = x
	}
	if x+1 > a.xmax {
		a.xmax = x + 1
	}
	if y < a.ymin {
		a.ymin = y
	}
	if y+1 > a.ymax {
		a.ymax = y + 1
	}
}

// IsDirty reports whether any pixel was marked.
func (a *DirtyArea) IsDirty() bool {
	return a.xmax != 0
}

// Clear empties the area.
func (a *DirtyArea) Clear() {
	a.xmax = 0
}

// X0 is the left edge.
func (a *DirtyArea) X0() uint16 { return a.xmin }

// Y0 is the top edge.
func (a *DirtyArea) Y0() uint16 { return a.ymin }

// Width of the area.
func (a *DirtyArea) Width() uint16 { return a.xmax - a.xmin }

// Height of the area.
func (a *DirtyArea) Height() uint16 { return a.ymax - a.ymin }

// Rect returns the area as a rectangle, empty if not dirty.
func (a *DirtyArea) Rect() image.Rectangle {
	if !a.IsDirty() {
		return image.Rectangle{}
	}
	return image.Rect(int(a.xmin), int(a.ymin), int(a.xmax), int(a.ymax))
}
