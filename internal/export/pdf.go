/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"bluemark/internal/domain"
	"bluemark/internal/render"
)

// PDFOptions controls PDF export behavior. Units are points; one logical
// blueprint unit maps to one point, so the page size follows the drawing.
//
// Vector text uses built-in Helvetica for portability; font embedding is not
// supported.
type PDFOptions struct {
	// Background is the source drawing, embedded as a full-page raster
	// under the vector markup. Nil exports markup on a blank page.
	Background image.Image
	// LogicalW/LogicalH define the blueprint coordinate space. Zero falls
	// back to the background's pixel bounds.
	LogicalW, LogicalH float64
	// Title is stored in the document metadata.
	Title string
}

// WritePDF draws the snapshot as vector markup onto a single-page PDF at
// outPath. Freehand strokes become polylines, rectangles and circles stay
// true shapes, text stays selectable text.
func WritePDF(snapshot domain.Snapshot, outPath string, opt PDFOptions) error {
	logW, logH := opt.LogicalW, opt.LogicalH
	if logW <= 0 || logH <= 0 {
		if opt.Background == nil {
			return fmt.Errorf("logical size required when no background is given")
		}
		b := opt.Background.Bounds()
		logW, logH = float64(b.Dx()), float64(b.Dy())
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: logW, Ht: logH},
		OrientationStr: "",
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetAuthor("bluemark", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: logW, Ht: logH})

	if opt.Background != nil {
		if err := embedBackground(pdf, opt.Background, logW, logH); err != nil {
			return err
		}
	}

	for _, e := range snapshot {
		drawPDFElement(pdf, e)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func embedBackground(pdf *gofpdf.Fpdf, img image.Image, w, h float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode background: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("background", opts, &buf)
	pdf.ImageOptions("background", 0, 0, w, h, false, opts, 0, "")
	return pdf.Error()
}

func drawPDFElement(pdf *gofpdf.Fpdf, e domain.Element) {
	col := render.ParseHexColor(e.Color)
	pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
	pdf.SetLineWidth(e.StrokeWidth)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	switch e.Kind {
	case domain.KindFreehand:
		for i := 1; i < len(e.Points); i++ {
			a, b := e.Points[i-1], e.Points[i]
			pdf.Line(a.X, a.Y, b.X, b.Y)
		}
	case domain.KindRect:
		if e.Start == nil || e.End == nil {
			return
		}
		x0 := math.Min(e.Start.X, e.End.X)
		y0 := math.Min(e.Start.Y, e.End.Y)
		pdf.Rect(x0, y0, math.Abs(e.End.X-e.Start.X), math.Abs(e.End.Y-e.Start.Y), "D")
	case domain.KindCircle:
		if e.Center == nil {
			return
		}
		r := e.Radius()
		if r <= 0 {
			return
		}
		pdf.Circle(e.Center.X, e.Center.Y, r, "D")
	case domain.KindText:
		if e.Anchor == nil || e.Text == "" {
			return
		}
		pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
		size := e.StrokeWidth * 6
		if size < 8 {
			size = 8
		}
		pdf.SetFont("Helvetica", "", size)
		pdf.Text(e.Anchor.X, e.Anchor.Y, e.Text)
	}
}
