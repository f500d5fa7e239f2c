package manuals

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/ecodanforum/backend/internal/models"
)

const cropPadding = 8

// Highlight overlay color, rgba(255, 230, 0, 0.35).
var highlightR, highlightG, highlightB, highlightA = 255.0 / 255, 230.0 / 255, 0.0, 0.35

// renderPagePNG draws the page's text runs onto a white canvas at the given
// scale. PDF user space has its origin bottom-left, so y flips.
func renderPagePNG(pg pageContent, scale float64) ([]byte, error) {
	dc := rasterize(pg, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterize(pg pageContent, scale float64) *gg.Context {
	w := int(pg.width * scale)
	h := int(pg.height * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0, 0, 0)
	for _, run := range pg.runs {
		if run.S == "" {
			continue
		}
		dc.DrawString(run.S, run.X*scale, (pg.height-run.Y)*scale)
	}
	return dc
}

// renderHighlightCrop renders the page, crops the selection box with fixed
// padding, paints the semi-transparent highlight over the selection and
// returns the crop base64-PNG-encoded along with its canvas-space rect.
func renderHighlightCrop(pg pageContent, scale float64, box models.Rect) (string, models.Rect, error) {
	dc := rasterize(pg, scale)

	// Selection box in canvas space, y flipped from PDF space.
	sel := models.Rect{
		X:      box.X * scale,
		Y:      (pg.height - box.Y - box.Height) * scale,
		Width:  box.Width * scale,
		Height: box.Height * scale,
	}

	x0 := int(sel.X) - cropPadding
	y0 := int(sel.Y) - cropPadding
	x1 := int(sel.X+sel.Width) + cropPadding
	y1 := int(sel.Y+sel.Height) + cropPadding
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > dc.Width() {
		x1 = dc.Width()
	}
	if y1 > dc.Height() {
		y1 = dc.Height()
	}
	if x1 <= x0 || y1 <= y0 {
		return "", models.Rect{}, fmt.Errorf("selection outside canvas")
	}

	src := dc.Image()
	crop := gg.NewContext(x1-x0, y1-y0)
	crop.DrawImage(cropImage(src, x0, y0, x1, y1), 0, 0)

	crop.SetRGBA(highlightR, highlightG, highlightB, highlightA)
	crop.DrawRectangle(sel.X-float64(x0), sel.Y-float64(y0), sel.Width, sel.Height)
	crop.Fill()

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop.Image()); err != nil {
		return "", models.Rect{}, fmt.Errorf("encode highlight: %w", err)
	}

	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return encoded, sel, nil
}

// cropImage copies the region into a fresh image with origin bounds so the
// crop context can draw it at (0, 0).
func cropImage(src image.Image, x0, y0, x1, y1 int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			out.Set(x-x0, y-y0, src.At(x, y))
		}
	}
	return out
}
