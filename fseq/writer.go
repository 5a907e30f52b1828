package fseq

import (
	"fmt"
	"io"
)

// Writer writes an uncompressed sequence file.
type Writer struct {
	w      io.Writer
	header Header
	frames uint32
}

// NewHeader returns a playable header for the given frame geometry. The
// channel data starts right after the fixed header.
func NewHeader(channels, frames uint32, step uint8) Header {
	return Header{
		Magic:             Magic,
		ChannelDataOffset: HeaderSize,
		MinorVersion:      0,
		MajorVersion:      MajorVersion,
		HeaderLength:      HeaderSize,
		ChannelCount:      channels,
		FrameCount:        frames,
		StepTimeMS:        step,
	}
}

// NewWriter writes h to w, pads up to the channel data offset and returns a
// Writer ready for frames.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if err := h.CheckPlayable(); err != nil {
		return nil, err
	}
	if h.ChannelDataOffset < HeaderSize {
		return nil, fmt.Errorf("channel data offset %d overlaps the header", h.ChannelDataOffset)
	}

	b, err := h.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if pad := int(h.ChannelDataOffset) - HeaderSize; pad > 0 {
		b = append(b, make([]byte, pad)...)
	}
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return &Writer{w: w, header: h}, nil
}

// WriteFrame writes one frame of channel data. The frame must be exactly
// ChannelCount bytes long.
func (w *Writer) WriteFrame(frame []byte) error {
	if len(frame) != int(w.header.ChannelCount) {
		return fmt.Errorf("frame is %d bytes, want %d", len(frame), w.header.ChannelCount)
	}
	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() uint32 { return w.frames }
