package pixelblit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/pbled"
)

// Task is what the controller is currently doing.
type Task uint8

const (
	TaskIdle Task = iota
	TaskSequence
	TaskRainbow
)

var taskNames = [...]string{
	TaskIdle:     "idle",
	TaskSequence: "sequence",
	TaskRainbow:  "rainbow",
}

// String implements fmt.Stringer.
func (t Task) String() string {
	if int(t) < len(taskNames) {
		return taskNames[t]
	}
	return fmt.Sprintf("Task(%d)", t)
}

// MarshalText implements encoding.TextMarshaler.
func (t Task) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Task) UnmarshalText(b []byte) error {
	for i, name := range taskNames {
		if name == string(b) {
			*t = Task(i)
			return nil
		}
	}
	return fmt.Errorf("unknown task %q", b)
}

// ErrNotRunning is returned by operations that need a specific task to be
// running.
var ErrNotRunning = errors.New("task is not running")

// ControllerOpts are options for a Controller.
type ControllerOpts struct {
	// Library is where sequences are looked up by name.
	Library Library
	// Board is the string layout of this board.
	Board boardconfig.Config
	// Engine transmits the frames of every driver the controller creates.
	Engine pbled.TransferEngine
	// Logger is the logger to use for the controller.
	Logger *slog.Logger
}

// Status is a snapshot of the controller.
type Status struct {
	Task       Task   `json:"task"`
	Sequence   string `json:"sequence,omitempty"`
	Loops      uint64 `json:"loops"`
	Frames     uint64 `json:"frames"`
	FPS        int    `json:"fps"`
	String     int    `json:"string"`
	Brightness uint8  `json:"brightness"`
	LastError  string `json:"last_error,omitempty"`
}

// Controller runs one output task at a time: a looping sequence or the
// rainbow test pattern. Starting a task stops the current one first and
// waits for it to blank the strings. All methods are safe for concurrent
// use.
type Controller struct {
	opts   ControllerOpts
	logger *slog.Logger

	mu         sync.Mutex
	run        *taskRun
	lastErr    error
	brightness uint8
	// seqDriver survives consecutive sequences so that switching files does
	// not recreate it. It is closed when any other task starts.
	seqDriver *pbled.Driver
}

type taskRun struct {
	task    Task
	name    string
	cancel  context.CancelFunc
	done    chan struct{}
	driver  *pbled.Driver
	player  *Player
	rainbow *Rainbow

	// err is written before done is closed.
	err error
}

func (r *taskRun) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// NewController creates an idle controller.
func NewController(opts ControllerOpts) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		opts:       opts,
		logger:     opts.Logger.With("component", "controller"),
		brightness: 255,
	}
}

// Sequences lists the sequences in the library.
func (c *Controller) Sequences() ([]string, error) {
	return c.opts.Library.Sequences()
}

// PlaySequence stops the current task and loops the named sequence.
func (c *Controller) PlaySequence(name string) error {
	path, err := c.opts.Library.Path(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(true)

	if c.seqDriver == nil {
		cfg, err := c.opts.Board.DriverConfig()
		if err != nil {
			return fmt.Errorf("failed to configure sequence driver: %w", err)
		}
		// Sequences are authored in the strings' own channel order.
		cfg.ColorOrder = pbled.RGBOrder

		d, err := c.newDriver(cfg)
		if err != nil {
			return err
		}
		c.seqDriver = d
	}

	logger := c.logger.With("sequence", name)
	player := NewPlayer(c.seqDriver, PlayerOpts{
		Board:  c.opts.Board,
		Logger: c.opts.Logger,
		OnLoop: func() { logger.Debug("sequence looped") },
	})

	c.startLocked(&taskRun{
		task:   TaskSequence,
		name:   name,
		driver: c.seqDriver,
		player: player,
	}, func(ctx context.Context) error {
		return player.Play(ctx, path)
	})
	return nil
}

// PlayRainbow stops the current task and starts the rainbow pattern.
func (c *Controller) PlayRainbow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(false)

	d, err := c.newDriver(RainbowConfig(c.opts.Board.ColorOrder(0)))
	if err != nil {
		return err
	}

	rainbow, err := NewRainbow(d, c.opts.Logger)
	if err != nil {
		d.Close()
		return fmt.Errorf("failed to create rainbow: %w", err)
	}

	c.startLocked(&taskRun{
		task:    TaskRainbow,
		driver:  d,
		rainbow: rainbow,
	}, func(ctx context.Context) error {
		defer d.Close()
		return rainbow.Run(ctx)
	})
	return nil
}

// NextString moves the rainbow to the next string and returns it.
func (c *Controller) NextString() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == nil || c.run.task != TaskRainbow || c.run.finished() {
		return 0, fmt.Errorf("rainbow: %w", ErrNotRunning)
	}
	return c.run.rainbow.NextString(), nil
}

// SetBrightness sets the brightness of the current and future tasks.
func (c *Controller) SetBrightness(b uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.brightness = b
	if c.run != nil && !c.run.finished() {
		c.run.driver.SetBrightness(b)
	}
}

// Stop stops the current task, waits for the strings to be blanked and
// releases the driver.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(false)
}

// Close stops the controller.
func (c *Controller) Close() error {
	c.Stop()
	return nil
}

// Wait blocks until the current task ends on its own or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run.done:
		return run.err
	}
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Brightness: c.brightness}

	run := c.run
	if run != nil && run.finished() {
		c.reapLocked()
		run = nil
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	if run == nil {
		return st
	}

	st.Task = run.task
	st.Sequence = run.name
	st.FPS = run.driver.FPS()
	st.Frames = run.driver.FrameCount()
	if run.player != nil {
		st.Loops = run.player.Loops()
		st.Frames = run.player.Frames()
	}
	if run.rainbow != nil {
		st.String = run.rainbow.CurrentString()
	}
	return st
}

func (c *Controller) newDriver(cfg pbled.Config) (*pbled.Driver, error) {
	cfg.Engine = c.opts.Engine
	cfg.Logger = c.opts.Logger

	d, err := pbled.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	d.SetBrightness(c.brightness)
	return d, nil
}

func (c *Controller) startLocked(run *taskRun, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel
	run.done = make(chan struct{})
	c.run = run
	c.lastErr = nil

	logger := c.logger.With("task", run.task.String())
	if run.name != "" {
		logger = logger.With("sequence", run.name)
	}
	logger.Info("task started")

	go func() {
		defer close(run.done)

		err := fn(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(
				"task failed",
				"error", err)
			run.err = err
			return
		}

		logger.Info("task stopped")
	}()
}

// stopLocked cancels the current task and waits for it. The sequence driver
// is kept when keepSequence is set.
func (c *Controller) stopLocked(keepSequence bool) {
	if c.run != nil {
		c.run.cancel()
		<-c.run.done
		c.reapLocked()
	}

	if !keepSequence && c.seqDriver != nil {
		c.seqDriver.Close()
		c.seqDriver = nil
	}
}

func (c *Controller) reapLocked() {
	c.lastErr = c.run.err
	c.run = nil
}
