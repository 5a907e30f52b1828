// Package fseq implements a streaming decoder for uncompressed FSEQ v2
// lighting sequences.
package fseq

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/jvanderberg/pixelblit/errcode"
)

// HeaderSize is the size of the fixed sequence header in bytes.
const HeaderSize = 32

// Magic is "PSEQ" read as a little-endian uint32.
const Magic uint32 = 0x51455350

// MajorVersion is the only major version the decoder understands.
const MajorVersion = 2

// DefaultFPS is used when a sequence declares a zero step time.
const DefaultFPS = 30

// Header is the fixed 32-byte record at the start of a sequence file.
type Header struct {
	Magic             uint32
	ChannelDataOffset uint16
	MinorVersion      uint8
	MajorVersion      uint8
	HeaderLength      uint16
	ChannelCount      uint32
	FrameCount        uint32
	StepTimeMS        uint8
	Flags             uint8
	CompressionType   uint8
	CompressionBlocks uint8
	CompressionHigh   uint8
	SparseRanges      uint8
	Reserved          uint8
	// UniqueID holds the 7 id bytes that fit inside the fixed header.
	UniqueID uint64
}

// ParseHeader decodes and validates a sequence header. Only the magic and the
// major version are checked.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, errcode.New(errcode.ShortHeader, "fseq.ParseHeader",
			fmt.Sprintf("got %d bytes, need %d", len(b), HeaderSize))
	}

	le := binary.LittleEndian
	h := Header{
		Magic:             le.Uint32(b[0:]),
		ChannelDataOffset: le.Uint16(b[4:]),
		MinorVersion:      b[6],
		MajorVersion:      b[7],
		HeaderLength:      le.Uint16(b[8:]),
		ChannelCount:      le.Uint32(b[10:]),
		FrameCount:        le.Uint32(b[14:]),
		StepTimeMS:        b[18],
		Flags:             b[19],
		CompressionType:   b[20],
		CompressionBlocks: b[21],
		CompressionHigh:   b[22],
		SparseRanges:      b[23],
		Reserved:          b[24],
	}
	for i := 0; i < 7; i++ {
		h.UniqueID |= uint64(b[25+i]) << (8 * i)
	}

	if h.Magic != Magic {
		return Header{}, errcode.New(errcode.InvalidMagic, "fseq.ParseHeader",
			fmt.Sprintf("got %#08x", h.Magic))
	}
	if h.MajorVersion != MajorVersion {
		return Header{}, errcode.New(errcode.UnsupportedVersion, "fseq.ParseHeader",
			fmt.Sprintf("major version %d", h.MajorVersion))
	}

	return h, nil
}

// ReadHeader reads exactly HeaderSize bytes from r and parses them.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Header{}, errcode.New(errcode.ShortHeader, "fseq.ReadHeader",
				fmt.Sprintf("got %d bytes, need %d", n, HeaderSize))
		}
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	return ParseHeader(buf[:])
}

// MarshalBinary encodes the header into its 32-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:], h.Magic)
	le.PutUint16(b[4:], h.ChannelDataOffset)
	b[6] = h.MinorVersion
	b[7] = h.MajorVersion
	le.PutUint16(b[8:], h.HeaderLength)
	le.PutUint32(b[10:], h.ChannelCount)
	le.PutUint32(b[14:], h.FrameCount)
	b[18] = h.StepTimeMS
	b[19] = h.Flags
	b[20] = h.CompressionType
	b[21] = h.CompressionBlocks
	b[22] = h.CompressionHigh
	b[23] = h.SparseRanges
	b[24] = h.Reserved
	for i := 0; i < 7; i++ {
		b[25+i] = byte(h.UniqueID >> (8 * i))
	}
	return b, nil
}

// CheckPlayable reports an error if the sequence cannot be streamed by this
// package.
func (h Header) CheckPlayable() error {
	if h.CompressionType != 0 {
		return errcode.New(errcode.Compressed, "fseq.CheckPlayable",
			fmt.Sprintf("compression type %d", h.CompressionType))
	}
	return nil
}

// FPS returns the playback rate implied by the step time.
func (h Header) FPS() int {
	if h.StepTimeMS == 0 {
		return DefaultFPS
	}
	return 1000 / int(h.StepTimeMS)
}

// FrameInterval returns the step time as a duration.
func (h Header) FrameInterval() time.Duration {
	if h.StepTimeMS == 0 {
		return time.Second / DefaultFPS
	}
	return time.Duration(h.StepTimeMS) * time.Millisecond
}

// String implements fmt.Stringer.
func (h Header) String() string {
	return fmt.Sprintf("fseq v%d.%d: %d channels, %d frames, %dms step",
		h.MajorVersion, h.MinorVersion, h.ChannelCount, h.FrameCount, h.StepTimeMS)
}
