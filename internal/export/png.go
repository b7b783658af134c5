/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export flattens a markup snapshot over its blueprint drawing into
// portable files. PNG output reuses the editor's raster pipeline so the file
// matches what the canvas showed; PDF output redraws the elements as vectors.
package export

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"bluemark/internal/domain"
	"bluemark/internal/render"
	"bluemark/internal/viewport"
)

// PNGOptions controls PNG export behavior.
// Zero values pick the background's native size at 1:1 zoom.
type PNGOptions struct {
	// Width/Height in pixels. When only one is set the other is derived
	// from the logical aspect ratio.
	Width, Height int
	// Background is the source drawing; nil exports markup on white.
	Background image.Image
	// LogicalW/LogicalH define the blueprint coordinate space. Zero falls
	// back to the background's pixel bounds.
	LogicalW, LogicalH float64
}

func (opt PNGOptions) resolve() (pixW, pixH int, logW, logH float64, err error) {
	logW, logH = opt.LogicalW, opt.LogicalH
	if logW <= 0 || logH <= 0 {
		if opt.Background == nil {
			return 0, 0, 0, 0, fmt.Errorf("logical size required when no background is given")
		}
		b := opt.Background.Bounds()
		logW, logH = float64(b.Dx()), float64(b.Dy())
	}
	pixW, pixH = opt.Width, opt.Height
	switch {
	case pixW <= 0 && pixH <= 0:
		pixW, pixH = int(math.Round(logW)), int(math.Round(logH))
	case pixW <= 0:
		pixW = int(math.Round(float64(pixH) * logW / logH))
	case pixH <= 0:
		pixH = int(math.Round(float64(pixW) * logH / logW))
	}
	if pixW <= 0 || pixH <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("output size %dx%d is not positive", pixW, pixH)
	}
	return pixW, pixH, logW, logH, nil
}

// RenderPNG flattens the snapshot into an RGBA image.
func RenderPNG(snapshot domain.Snapshot, opt PNGOptions) (*image.RGBA, error) {
	pixW, pixH, logW, logH, err := opt.resolve()
	if err != nil {
		return nil, err
	}
	// Scale logical space to fill the output; the viewport clamp does not
	// apply here because export is not an interactive zoom.
	vp := viewport.New()
	vp.Zoom = float64(pixW) / logW
	surface := render.Surface{
		Width:      pixW,
		Height:     pixH,
		Background: opt.Background,
		LogicalW:   logW,
		LogicalH:   logH,
	}
	return render.Repaint(surface, snapshot, nil, vp), nil
}

// WritePNG flattens the snapshot and writes it to outPath, creating parent
// directories as needed.
func WritePNG(snapshot domain.Snapshot, outPath string, opt PNGOptions) error {
	img, err := RenderPNG(snapshot, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}
