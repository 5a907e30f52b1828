// Package errcode defines the stable error codes reported by the sequence
// decoder, the LED driver and the raster pool.
package errcode

import "errors"

// Code is a stable error identifier. It is comparable and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Format errors are fatal to the sequence file that produced them.
const (
	InvalidMagic       Code = "invalid_magic"
	UnsupportedVersion Code = "unsupported_version"
	Compressed         Code = "compressed"
	ShortHeader        Code = "short_header"
)

// Resource errors are reported when something is created.
const (
	InUse         Code = "in_use"
	InvalidConfig Code = "invalid_config"
	PoolExhausted Code = "pool_exhausted"
)

// Error is the generic fallback code.
const Error Code = "error"

// E carries a code together with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match an *E carrying that code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New returns an *E for op with a formatted message.
func New(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error chain, defaulting to Error. A nil error
// has the empty code.
func Of(err error) Code {
	if err == nil {
		return ""
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// IsFormat reports whether err is a sequence format error.
func IsFormat(err error) bool {
	switch Of(err) {
	case InvalidMagic, UnsupportedVersion, Compressed, ShortHeader:
		return true
	}
	return false
}

// IsResource reports whether err is a resource error raised at creation time.
func IsResource(err error) bool {
	switch Of(err) {
	case InUse, InvalidConfig, PoolExhausted:
		return true
	}
	return false
}
