package display

import (
	"image/color"
	"io"
	"strings"

	"tinygo.org/x/tinyfont"
)

// Panel geometry of the SSD1306 module.
const (
	OLEDWidth  = 128
	OLEDHeight = 64

	textX       = 5
	textTop     = 8
	lineAdvance = 8
)

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// OLED is a monochrome framebuffer laid out in 8-row pages like the
// SSD1306 controller's GDDRAM.  It is a display tinyfont can draw on.
// It is not safe for concurrent use.
type OLED struct {
	buf []byte
	out io.Writer
}

// NewOLED returns a cleared framebuffer.  Display writes an ASCII
// rendering of the frame to out; out may be nil.
func NewOLED(out io.Writer) *OLED {
	return &OLED{
		buf: make([]byte, OLEDWidth*OLEDHeight/8),
		out: out,
	}
}

// Size reports the panel dimensions.
func (o *OLED) Size() (x, y int16) { return OLEDWidth, OLEDHeight }

// SetPixel lights (any non-black colour) or clears one pixel.
// Coordinates outside the panel are ignored.
func (o *OLED) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= OLEDWidth || y >= OLEDHeight {
		return
	}
	i := int(y/8)*OLEDWidth + int(x)
	bit := byte(1) << uint(y%8)
	if c.R|c.G|c.B != 0 {
		o.buf[i] |= bit
	} else {
		o.buf[i] &^= bit
	}
}

// Pixel reports whether (x, y) is lit.
func (o *OLED) Pixel(x, y int16) bool {
	if x < 0 || y < 0 || x >= OLEDWidth || y >= OLEDHeight {
		return false
	}
	return o.buf[int(y/8)*OLEDWidth+int(x)]&(1<<uint(y%8)) != 0
}

// Clear turns every pixel off.
func (o *OLED) Clear() {
	for i := range o.buf {
		o.buf[i] = 0
	}
}

// Display flushes the frame.
func (o *OLED) Display() error {
	if o.out == nil {
		return nil
	}
	_, err := io.WriteString(o.out, o.String())
	return err
}

// Show clears the panel, draws one line of text per 8-pixel row and
// flushes.
func (o *OLED) Show(lines []string) error {
	o.Clear()
	for i, line := range lines {
		y := int16(textTop + i*lineAdvance)
		tinyfont.WriteLine(o, &tinyfont.TomThumb, textX, y, line, white)
	}
	return o.Display()
}

// String renders the frame as rows of '#' (lit) and '.' (dark).
func (o *OLED) String() string {
	var sb strings.Builder
	sb.Grow((OLEDWidth + 1) * OLEDHeight)
	for y := int16(0); y < OLEDHeight; y++ {
		for x := int16(0); x < OLEDWidth; x++ {
			if o.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
