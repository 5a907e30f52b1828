package pixelblit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jvanderberg/pixelblit/pbled"
)

// Rainbow test pattern geometry.
const (
	RainbowStrings = 32
	RainbowPixels  = 50
	RainbowFPS     = 120
)

// rainbowBackground shows up as red only when the color order is right.
const rainbowBackground pbled.Color = 0xFF0000

// RainbowConfig returns the driver configuration used by the rainbow
// pattern.
func RainbowConfig(order pbled.ColorOrder) pbled.Config {
	return pbled.Config{
		NumStrings:     RainbowStrings,
		MaxPixelLength: RainbowPixels,
		ColorOrder:     order,
	}
}

// Rainbow draws an animated rainbow on one string over a red background.
// It is used to check wiring and color order string by string.
type Rainbow struct {
	driver *pbled.Driver
	raster *pbled.Raster
	logger *slog.Logger

	hue     uint8
	current atomic.Int32
}

// NewRainbow creates the pattern on d. d needs at least RainbowStrings
// strings of RainbowPixels pixels.
func NewRainbow(d *pbled.Driver, logger *slog.Logger) (*Rainbow, error) {
	id, err := d.CreateRaster(pbled.RasterConfig{
		Width:  RainbowPixels,
		Height: RainbowStrings,
		Wrap:   pbled.WrapClip,
	})
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Rainbow{
		driver: d,
		raster: d.Raster(id),
		logger: logger.With("component", "rainbow"),
	}, nil
}

// NextString moves the rainbow to the next string, wrapping around. It is
// safe to call from any goroutine.
func (r *Rainbow) NextString() int {
	for {
		cur := r.current.Load()
		next := (cur + 1) % RainbowStrings
		if r.current.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}

// CurrentString returns the string the rainbow is drawn on.
func (r *Rainbow) CurrentString() int { return int(r.current.Load()) }

// Draw renders the next animation step into the driver's back buffer.
func (r *Rainbow) Draw() {
	r.raster.Fill(rainbowBackground)

	y := r.CurrentString()
	for x := 0; x < RainbowPixels; x++ {
		hue := uint8(x*255/RainbowPixels) + r.hue
		r.raster.SetPixel(x, y, pbled.HSV(hue, 255, 64))
	}
	r.hue += 2

	r.raster.Show(r.driver)
}

// Run animates the pattern until ctx is done, then blanks the strings and
// returns ctx.Err().
func (r *Rainbow) Run(ctx context.Context) error {
	r.logger.Info(
		"rainbow started",
		"string", r.CurrentString())

	var err error
	for err == nil {
		r.Draw()
		err = r.driver.ShowWithFPS(ctx, RainbowFPS)
	}

	r.driver.ShowWait()
	r.raster.Fill(0)
	r.raster.Show(r.driver)
	r.driver.Show()
	r.driver.ShowWait()

	r.logger.Info(
		"rainbow stopped",
		"frames", r.driver.FrameCount())

	return err
}
