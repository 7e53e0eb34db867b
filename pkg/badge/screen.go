package badge

import (
	"image"
	"image/draw"
	"sync"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	"github.com/robotalks/badge.go/pkg/coproc"
	"github.com/robotalks/badge.go/pkg/display"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// Screen colors.
var (
	ColorBackground = display.Black
	ColorReleased   = display.RGB565(0x39e7)
	ColorPressed    = display.Green
	ColorBattery    = display.Blue
	ColorBatteryLow = display.Red
	ColorCharging   = display.RGB565(0xffe0)
)

// Battery gauge range in volts.
const (
	BatteryEmpty = 3.3
	BatteryFull  = 4.2
	BatteryLow   = 3.5
)

const (
	tileCols = 5
	tileRows = 3
	gaugeH   = 8
	margin   = 4
)

// StatusScreen draws one tile per input and a battery gauge.
type StatusScreen struct {
	Canvas display.Canvas

	lock    sync.Mutex
	pressed [coproc.NumInputs]bool
	battery *msgs.BatteryStatus
	drawn   bool
}

// AddToLoop implements LoopAdder.
func (s *StatusScreen) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvOutput, s)
}

// Pressed reports the last known state of an input.
func (s *StatusScreen) Pressed(in coproc.Input) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return int(in) < coproc.NumInputs && s.pressed[in]
}

// Control implements Controller.
func (s *StatusScreen) Control(cc fx.ControlContext) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	changed := !s.drawn
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *msgs.InputEvent:
			if int(msg.Input) < coproc.NumInputs {
				s.pressed[msg.Input] = !msg.Released
				changed = true
			}
		case *msgs.BatteryStatus:
			s.battery = msg
			changed = true
		}
	}))
	if changed {
		s.render()
		s.drawn = true
	}
	return nil
}

// TileRect returns where the tile of an input is drawn.
func (s *StatusScreen) TileRect(in coproc.Input) image.Rectangle {
	b := s.Canvas.Bounds()
	area := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y-gaugeH-margin)
	w, h := area.Dx()/tileCols, area.Dy()/tileRows
	col, row := int(in)%tileCols, int(in)/tileCols
	r := image.Rect(col*w, row*h, (col+1)*w, (row+1)*h).Add(area.Min)
	return r.Inset(margin / 2)
}

// GaugeRect returns where the battery gauge is drawn.
func (s *StatusScreen) GaugeRect() image.Rectangle {
	b := s.Canvas.Bounds()
	return image.Rect(b.Min.X+margin, b.Max.Y-gaugeH, b.Max.X-margin, b.Max.Y)
}

func (s *StatusScreen) fill(r image.Rectangle, c display.RGB565) {
	draw.Draw(s.Canvas, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *StatusScreen) render() {
	if !s.drawn {
		s.fill(s.Canvas.Bounds(), ColorBackground)
	}
	for in := 0; in < coproc.NumInputs; in++ {
		c := ColorReleased
		if s.pressed[in] {
			c = ColorPressed
		}
		s.fill(s.TileRect(coproc.Input(in)), c)
	}

	gauge := s.GaugeRect()
	if s.battery == nil {
		s.fill(gauge, ColorBackground)
		return
	}
	level := (float64(s.battery.Volts) - BatteryEmpty) / (BatteryFull - BatteryEmpty)
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	c := ColorBattery
	switch {
	case s.battery.Charging:
		c = ColorCharging
	case s.battery.Volts < BatteryLow:
		c = ColorBatteryLow
	}
	bar, rest := gauge, gauge
	bar.Max.X = bar.Min.X + int(float64(gauge.Dx())*level)
	rest.Min.X = bar.Max.X
	s.fill(bar, c)
	s.fill(rest, ColorBackground)
}

// Flusher makes the canvas visible at the end of each iteration.
type Flusher struct {
	Canvas display.Canvas
}

// AddToLoop implements LoopAdder.
func (f *Flusher) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, f)
}

// Control implements Controller.
func (f *Flusher) Control(cc fx.ControlContext) error {
	return f.Canvas.Flush()
}
