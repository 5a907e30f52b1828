package pbled

import (
	"fmt"
	"strings"
)

// Color is a 24-bit 0xRRGGBB value.
type Color uint32

// RGB packs the three components into a Color.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// R returns the red component.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green component.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue component.
func (c Color) B() uint8 { return uint8(c) }

// String implements fmt.Stringer.
func (c Color) String() string { return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF) }

// HSV converts an 8-bit hue, saturation and value into a Color using integer
// arithmetic. The hue wraps around at 256.
func HSV(h, s, v uint8) Color {
	if s == 0 {
		return RGB(v, v, v)
	}

	h6 := uint16(h) * 6
	sector := h6 >> 8
	frac := uint16(h6 & 0xFF)

	vv, ss := uint16(v), uint16(s)
	p := uint8(vv * (255 - ss) / 255)
	q := uint8(vv * (255 - ss*frac/255) / 255)
	t := uint8(vv * (255 - ss*(255-frac)/255) / 255)

	switch sector {
	case 0:
		return RGB(v, t, p)
	case 1:
		return RGB(q, v, p)
	case 2:
		return RGB(p, v, t)
	case 3:
		return RGB(p, q, v)
	case 4:
		return RGB(t, p, v)
	default:
		return RGB(v, p, q)
	}
}

// Scale scales each component by s/255.
func (c Color) Scale(s uint8) Color {
	if s == 255 {
		return c
	}
	scale := func(v uint8) uint8 { return uint8(uint16(v) * uint16(s) / 255) }
	return RGB(scale(c.R()), scale(c.G()), scale(c.B()))
}

// Blend mixes c with other. An amount of 0 yields c, 255 yields other.
func (c Color) Blend(other Color, amount uint8) Color {
	inv := uint16(255 - amount)
	a := uint16(amount)
	mix := func(x, y uint8) uint8 { return uint8((uint16(x)*inv + uint16(y)*a) / 255) }
	return RGB(mix(c.R(), other.R()), mix(c.G(), other.G()), mix(c.B(), other.B()))
}

// ColorOrder is the order in which a string expects the color channels on
// the wire.
type ColorOrder uint8

const (
	GRBOrder ColorOrder = iota
	RGBOrder
	BGROrder
	RBGOrder
	GBROrder
	BRGOrder
)

// ColorOrders lists every supported order.
var ColorOrders = []ColorOrder{GRBOrder, RGBOrder, BGROrder, RBGOrder, GBROrder, BRGOrder}

// permutations maps each order to the RGB component index sent in each
// wire slot (0 = red, 1 = green, 2 = blue).
var permutations = [...][3]uint8{
	GRBOrder: {1, 0, 2},
	RGBOrder: {0, 1, 2},
	BGROrder: {2, 1, 0},
	RBGOrder: {0, 2, 1},
	GBROrder: {1, 2, 0},
	BRGOrder: {2, 0, 1},
}

var colorOrderNames = [...]string{
	GRBOrder: "GRB",
	RGBOrder: "RGB",
	BGROrder: "BGR",
	RBGOrder: "RBG",
	GBROrder: "GBR",
	BRGOrder: "BRG",
}

func (o ColorOrder) perm() [3]uint8 {
	if int(o) >= len(permutations) {
		return permutations[GRBOrder]
	}
	return permutations[o]
}

// String implements fmt.Stringer.
func (o ColorOrder) String() string {
	if int(o) >= len(colorOrderNames) {
		return fmt.Sprintf("ColorOrder(%d)", uint8(o))
	}
	return colorOrderNames[o]
}

// Wire reorders c into the three bytes sent on the wire.
func (o ColorOrder) Wire(c Color) [3]byte {
	rgb := [3]byte{c.R(), c.G(), c.B()}
	p := o.perm()
	return [3]byte{rgb[p[0]], rgb[p[1]], rgb[p[2]]}
}

// FromWire is the inverse of Wire.
func (o ColorOrder) FromWire(w [3]byte) Color {
	var rgb [3]byte
	p := o.perm()
	for i, ix := range p {
		rgb[ix] = w[i]
	}
	return RGB(rgb[0], rgb[1], rgb[2])
}

// ParseColorOrder reads an order from the first three non-blank characters
// of s, case-insensitively. Anything unrecognized is GRBOrder.
func ParseColorOrder(s string) ColorOrder {
	s = strings.TrimLeft(s, " \t")
	if len(s) < 3 {
		return GRBOrder
	}
	prefix := strings.ToUpper(s[:3])
	for i, name := range colorOrderNames {
		if name == prefix {
			return ColorOrder(i)
		}
	}
	return GRBOrder
}

// MarshalText implements encoding.TextMarshaler.
func (o ColorOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
