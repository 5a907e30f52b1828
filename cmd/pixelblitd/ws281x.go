package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/pbled"
	"libdb.so/ledctl"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

// ws281xEngine sends every enabled string, one after another, down a single
// PWM chain. The frame's wire bytes are sent as they are: ledctl is set up
// for BGR, so they are handed over reversed.
type ws281xEngine struct {
	ctrl    RGBController
	lengths []int
	reset   time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

var _ pbled.TransferEngine = (*ws281xEngine)(nil)

func ws281xConfig(board boardconfig.Config, gpioPin int) ledctl.WS281xConfig {
	return ledctl.WS281xConfig{
		ColorOrder:   ledctl.BGROrder,
		ColorModel:   ledctl.RGBModel,
		PWMFrequency: pbled.DefaultFrequency,
		DMAChannel:   10,
		GPIOPins:     []int{gpioPin},
		NumPixels:    chainLength(board),
	}
}

func chainLength(board boardconfig.Config) int {
	var n int
	for _, l := range board.Layout() {
		n += l
	}
	return n
}

func newWS281xEngine(board boardconfig.Config, gpioPin int, logger *slog.Logger) (*ws281xEngine, error) {
	if chainLength(board) == 0 {
		return nil, fmt.Errorf("board %d has no pixels", board.BoardID)
	}

	ws281x, err := ledctl.NewWS281x(ws281xConfig(board, gpioPin))
	if err != nil {
		return nil, fmt.Errorf("failed to create a WS281x controller: %w", err)
	}

	return newWS281xEngineWith(ws281x, board, logger), nil
}

func newWS281xEngineWith(ctrl RGBController, board boardconfig.Config, logger *slog.Logger) *ws281xEngine {
	return &ws281xEngine{
		ctrl:    ctrl,
		lengths: board.Layout(),
		reset:   pbled.DefaultResetDelay,
		logger:  logger,
	}
}

// Transmit implements pbled.TransferEngine.
func (e *ws281xEngine) Transmit(f pbled.Frame, done func()) error {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer done()

		var i int
		for str, n := range e.lengths {
			for p := 0; p < n; p++ {
				w := f.Wire(str, p)
				e.ctrl.SetRGBAt(i, ledctl.RGB(xcolor.RGBFromUint(
					uint32(w[2])<<16|uint32(w[1])<<8|uint32(w[0]))))
				i++
			}
		}

		if err := e.ctrl.Flush(); err != nil {
			e.logger.Error(
				"error writing LED strip",
				"seq", f.Seq,
				"error", err)
		}
		time.Sleep(e.reset)
	}()
	return nil
}

// Close waits for the frame in flight.
func (e *ws281xEngine) Close() error {
	e.wg.Wait()
	return nil
}
