package pbled

import "testing"

func TestHSV(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v uint8
		want    Color
	}{
		{"red", 0, 255, 255, 0xFF0000},
		{"gray", 123, 0, 77, RGB(77, 77, 77)},
		{"black", 200, 255, 0, 0},
		{"sector 2 start", 86, 255, 255, RGB(0, 255, 4)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertEq(t, test.want, HSV(test.h, test.s, test.v))
		})
	}
}

func TestScaleBlend(t *testing.T) {
	assertEq(t, Color(0x402010), Color(0x804020).Scale(128))
	assertEq(t, Color(0x804020), Color(0x804020).Scale(255))
	assertEq(t, Color(0), Color(0xFFFFFF).Scale(0))

	assertEq(t, Color(0x123456), Color(0x123456).Blend(0xFFFFFF, 0))
	assertEq(t, Color(0xFFFFFF), Color(0x123456).Blend(0xFFFFFF, 255))
	assertEq(t, Color(0x800080), Color(0).Blend(0xFF00FF, 128))
}

func TestParseColorOrder(t *testing.T) {
	tests := []struct {
		in   string
		want ColorOrder
	}{
		{"RGB", RGBOrder},
		{"rgb", RGBOrder},
		{"Rgb", RGBOrder},
		{"grb", GRBOrder},
		{"BGR", BGROrder},
		{"RBG", RBGOrder},
		{"GBR", GBROrder},
		{"BRG", BRGOrder},
		{"  RGB", RGBOrder},
		{"\tGRB", GRBOrder},
		{"RGB extra", RGBOrder},
		{"XXX", GRBOrder},
		{"", GRBOrder},
	}

	for _, test := range tests {
		if got := ParseColorOrder(test.in); got != test.want {
			t.Errorf("ParseColorOrder(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestWireInverse(t *testing.T) {
	for _, order := range ColorOrders {
		c := Color(0x112233)
		if got := order.FromWire(order.Wire(c)); got != c {
			t.Errorf("%v: FromWire(Wire(%v)) = %v", order, c, got)
		}
	}
}
