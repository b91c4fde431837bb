package services

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode/qr"
)

// QRRenderer turns a payload into an SVG document.
type QRRenderer interface {
	Render(content string) ([]byte, error)
}

// SVGQRRenderer draws square modules at error correction level H with a
// quiet zone of Margin modules. Output is deterministic for a given payload.
type SVGQRRenderer struct {
	ModuleSize int
	Margin     int
}

func NewSVGQRRenderer() *SVGQRRenderer {
	return &SVGQRRenderer{ModuleSize: 8, Margin: 4}
}

func (r *SVGQRRenderer) Render(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty QR payload")
	}
	code, err := qr.Encode(content, qr.H, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}

	dim := code.Bounds().Dx()
	unit := r.ModuleSize
	size := (dim + 2*r.Margin) * unit

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(size, size, fmt.Sprintf(`viewBox="0 0 %d %d"`, size, size))
	canvas.Rect(0, 0, size, size, "fill:#ffffff")
	canvas.Gstyle("fill:#000000;shape-rendering:crispEdges")
	for y := 0; y < dim; y++ {
		// One rect per horizontal run of dark modules.
		for x := 0; x < dim; {
			if !dark(code.At(x, y).RGBA()) {
				x++
				continue
			}
			start := x
			for x < dim && dark(code.At(x, y).RGBA()) {
				x++
			}
			canvas.Rect((start+r.Margin)*unit, (y+r.Margin)*unit, (x-start)*unit, unit)
		}
	}
	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}

func dark(r, _, _, _ uint32) bool {
	return r < 0x8000
}
