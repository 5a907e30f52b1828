package output

import "github.com/jvanderberg/pixelblit/pbled"

// Observer sees every frame before it is transmitted. It must not block and
// must not keep the frame.
type Observer func(f pbled.Frame)

// Tee forwards frames to an engine after showing them to observers.
type Tee struct {
	engine    pbled.TransferEngine
	observers []Observer
}

var _ pbled.TransferEngine = (*Tee)(nil)

// NewTee creates a Tee in front of engine.
func NewTee(engine pbled.TransferEngine, observers ...Observer) *Tee {
	return &Tee{
		engine:    engine,
		observers: observers,
	}
}

// Transmit implements pbled.TransferEngine.
func (t *Tee) Transmit(f pbled.Frame, done func()) error {
	for _, o := range t.observers {
		o(f)
	}
	return t.engine.Transmit(f, done)
}
