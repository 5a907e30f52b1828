package pixelblit

import (
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/jvanderberg/pixelblit/pixelblitpb"
)

// NewPreviewFrame decodes f into the message sent to preview clients.
func NewPreviewFrame(f pbled.Frame) *pixelblitpb.PreviewFrame {
	return &pixelblitpb.PreviewFrame{
		Seq:     f.Seq,
		Strings: uint32(f.Strings()),
		Pixels:  uint32(f.Pixels()),
		Rgb:     f.AppendRGB(make([]byte, 0, f.Strings()*f.Pixels()*3)),
	}
}

// PreviewColor returns the color of a pixel of a preview frame, or black when
// it is out of range or missing from the frame.
func PreviewColor(p *pixelblitpb.PreviewFrame, str, pixel int) pbled.Color {
	strings, pixels := int(p.GetStrings()), int(p.GetPixels())
	if str < 0 || str >= strings || pixel < 0 || pixel >= pixels {
		return 0
	}
	rgb := p.GetRgb()
	i := (str*pixels + pixel) * 3
	if i+3 > len(rgb) {
		return 0
	}
	return pbled.RGB(rgb[i], rgb[i+1], rgb[i+2])
}
