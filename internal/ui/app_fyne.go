//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"bluemark/internal/bridge"
	"bluemark/internal/config"
	"bluemark/internal/crash"
	"bluemark/internal/domain"
	"bluemark/internal/editor"
	"bluemark/internal/export"
	applog "bluemark/internal/log"
	"bluemark/internal/render"
	"bluemark/internal/storage"
	"bluemark/internal/telemetry"
	"bluemark/internal/viewport"
)

// markupCanvas is the interactive drawing surface. It forwards pointer
// gestures to the editing session in logical coordinates and repaints from
// the raster pipeline after every change.
type markupCanvas struct {
	widget.BaseWidget

	img     *canvas.Image
	onDown  func(x, y float64)
	onMove  func(x, y float64)
	onUp    func(x, y float64)
	repaint func(w, h int) image.Image
}

func newMarkupCanvas() *markupCanvas {
	c := &markupCanvas{img: canvas.NewImageFromImage(nil)}
	c.img.FillMode = canvas.ImageFillContain
	c.img.ScaleMode = canvas.ImageScalePixels
	c.ExtendBaseWidget(c)
	return c
}

func (c *markupCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.img)
}

func (c *markupCanvas) Refresh() {
	if c.repaint != nil {
		sz := c.Size()
		w, h := int(sz.Width), int(sz.Height)
		if w > 0 && h > 0 {
			c.img.Image = c.repaint(w, h)
		}
	}
	c.img.Refresh()
	c.BaseWidget.Refresh()
}

func (c *markupCanvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.Refresh()
}

func (c *markupCanvas) MouseDown(e *desktop.MouseEvent) {
	if c.onDown != nil {
		c.onDown(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (c *markupCanvas) MouseUp(e *desktop.MouseEvent) {
	if c.onUp != nil {
		c.onUp(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (c *markupCanvas) Dragged(e *fyne.DragEvent) {
	if c.onMove != nil {
		c.onMove(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (c *markupCanvas) DragEnd() {}

// Run starts the Fyne-based markup editor on the given blueprint.
func Run(blueprintID string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("blueprint", blueprintID))

	cfg, token, err := config.Load()
	if err != nil {
		return err
	}
	client := bridge.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.EffectiveTimeout())

	store, err := openDraftStore()
	if err != nil {
		l.Warn("draft store unavailable", slog.Any("err", err))
	} else {
		defer func() { _ = store.Close() }()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
	snap, bp, err := client.LoadLive(ctx, blueprintID)
	cancel()
	if err != nil {
		return fmt.Errorf("load blueprint: %w", err)
	}

	sess := editor.NewSession(blueprintID, snap, domain.Style{
		Color:       cfg.Editor.DefaultColor,
		StrokeWidth: cfg.Editor.DefaultStrokeWidth,
	})
	defer func() { crash.Recover(store, sess) }()

	// A crash snapshot newer than the live markup wins, after asking.
	restoreSnap := maybeCrashSnapshot(store, blueprintID)

	background := fetchBackground(bp.SourceImageURL, l)
	vp := viewport.New()

	fyneApp := app.NewWithID("bluemark")
	w := fyneApp.NewWindow(fmt.Sprintf("BlueMark — %s", blueprintID))
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	setStatus := func(format string, args ...any) { status.SetText(fmt.Sprintf(format, args...)) }

	mc := newMarkupCanvas()
	mc.repaint = func(width, height int) image.Image {
		surface := render.Surface{Width: width, Height: height, Background: background}
		return render.Repaint(surface, sess.Committed(), sess.InProgress(), vp)
	}

	saveDraft := func() {
		if store == nil || !cfg.Editor.AutosaveDraft {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.SaveDraft(ctx, blueprintID, sess.Committed()); err != nil {
			l.Warn("draft autosave failed", slog.Any("err", err))
		}
	}
	sess.OnCommit = func(domain.Snapshot) {
		saveDraft()
		mc.Refresh()
	}

	toLogical := func(x, y float64) domain.Point { return vp.ScreenToLogical(x, y) }

	promptText := func() {
		entry := widget.NewEntry()
		dialog.ShowForm("Add text", "OK", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Text", entry)},
			func(ok bool) {
				if ok {
					sess.Handle(editor.Event{Kind: editor.TextConfirm, Text: entry.Text})
				} else {
					sess.Handle(editor.Event{Kind: editor.TextCancel})
				}
				mc.Refresh()
			}, w)
	}

	mc.onDown = func(x, y float64) {
		sess.Handle(editor.Event{Kind: editor.PointerDown, At: toLogical(x, y)})
		if sess.Phase() == editor.TextPending {
			promptText()
		}
		mc.Refresh()
	}
	mc.onMove = func(x, y float64) {
		sess.Handle(editor.Event{Kind: editor.PointerMove, At: toLogical(x, y)})
		mc.Refresh()
	}
	mc.onUp = func(x, y float64) {
		sess.Handle(editor.Event{Kind: editor.PointerUp, At: toLogical(x, y)})
		mc.Refresh()
	}

	selectTool := func(t editor.Tool, name string) {
		sess.SelectTool(t)
		setStatus("Tool: %s", name)
		mc.Refresh()
	}

	doSaveLive := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
		defer cancel()
		res, err := client.SaveLive(ctx, blueprintID, sess.Committed())
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if store != nil {
			_ = store.DeleteDraft(ctx, blueprintID)
		}
		telemetry.MarkupSaved(res.Version, len(sess.Committed()))
		setStatus("Saved (version %d)", res.Version)
	}

	doSaveNamed := func() {
		nameEntry := widget.NewEntry()
		descEntry := widget.NewEntry()
		sharedCheck := widget.NewCheck("Visible to the whole job", nil)
		dialog.ShowForm("Save As", "Save", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Description", descEntry),
			widget.NewFormItem("Shared", sharedCheck),
		}, func(ok bool) {
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
			defer cancel()
			save, err := client.SaveNamed(ctx, blueprintID, nameEntry.Text, sess.Committed(), descEntry.Text, sharedCheck.Checked)
			if err != nil {
				var ve *bridge.ValidationError
				if errors.As(err, &ve) {
					dialog.ShowInformation("Cannot save", ve.Reason, w)
					return
				}
				dialog.ShowError(err, w)
				return
			}
			telemetry.NamedSaveCreated(save.IsShared, len(sess.Committed()))
			setStatus("Saved as %q", save.Name)
		}, w)
	}

	doLoadNamed := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
		saves, err := client.ListNamed(ctx, blueprintID)
		cancel()
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if len(saves) == 0 {
			dialog.ShowInformation("Load", "No named saves for this blueprint yet.", w)
			return
		}
		names := make([]string, len(saves))
		for i, s := range saves {
			names[i] = fmt.Sprintf("%s (%s)", s.Name, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		sel := widget.NewSelect(names, nil)
		dialog.ShowForm("Load named save", "Load", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Save", sel)},
			func(ok bool) {
				if !ok || sel.SelectedIndex() < 0 {
					return
				}
				save := saves[sel.SelectedIndex()]
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
				defer cancel()
				loaded, _, err := client.LoadNamed(ctx, save.ID)
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				// Loading replaces the working set and restarts history.
				sess.LoadSnapshot(loaded)
				setStatus("Loaded %q", save.Name)
				mc.Refresh()
			}, w)
	}

	doExport := func(pdf bool) {
		dialog.ShowFileSave(func(uri fyne.URIWriteCloser, err error) {
			if err != nil || uri == nil {
				return
			}
			path := uri.URI().Path()
			_ = uri.Close()
			opt := export.PNGOptions{Background: background}
			if background == nil {
				opt.LogicalW, opt.LogicalH = 1600, 1200
			}
			if pdf {
				err = export.WritePDF(sess.Committed(), path, export.PDFOptions{
					Background: background,
					LogicalW:   opt.LogicalW,
					LogicalH:   opt.LogicalH,
					Title:      filepath.Base(path),
				})
			} else {
				err = export.WritePNG(sess.Committed(), path, opt)
			}
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			setStatus("Exported %s", filepath.Base(path))
		}, w)
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentCreateIcon(), func() { selectTool(editor.ToolPen, "pen") }),
		widget.NewToolbarAction(theme.CheckButtonIcon(), func() { selectTool(editor.ToolRect, "rectangle") }),
		widget.NewToolbarAction(theme.RadioButtonIcon(), func() { selectTool(editor.ToolCircle, "circle") }),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { selectTool(editor.ToolText, "text") }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() {
			if sess.Undo() {
				saveDraft()
				mc.Refresh()
			}
		}),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() {
			if sess.Redo() {
				saveDraft()
				mc.Refresh()
			}
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			dialog.ShowConfirm("Clear", "Remove all markup elements? This can be undone.", func(ok bool) {
				if ok {
					sess.Clear()
					saveDraft()
					mc.Refresh()
				}
			}, w)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { vp = vp.ZoomIn(); mc.Refresh() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { vp = vp.ZoomOut(); mc.Refresh() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { vp = vp.Reset(); mc.Refresh() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), doSaveLive),
		widget.NewToolbarAction(theme.ContentAddIcon(), doSaveNamed),
		widget.NewToolbarAction(theme.FolderOpenIcon(), doLoadNamed),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MediaPhotoIcon(), func() { doExport(false) }),
		widget.NewToolbarAction(theme.DocumentIcon(), func() { doExport(true) }),
	)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, mc))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		saveDraft()
	})

	if restoreSnap != nil {
		dialog.ShowConfirm("Recovered markup",
			"A crash snapshot for this blueprint was found. Restore it?", func(ok bool) {
				if ok {
					sess.LoadSnapshot(restoreSnap)
					mc.Refresh()
				}
			}, w)
	}

	mc.Refresh()
	w.ShowAndRun()
	return nil
}

func openDraftStore() (*storage.Store, error) {
	path, err := storage.DefaultPath()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

func maybeCrashSnapshot(store *storage.Store, blueprintID string) domain.Snapshot {
	if store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, _, ok, err := store.LatestCrashSnapshot(ctx, blueprintID)
	if err != nil || !ok || len(snap) == 0 {
		return nil
	}
	return snap
}

func fetchBackground(url string, l *slog.Logger) image.Image {
	if url == "" {
		return nil
	}
	cli := &http.Client{Timeout: 20 * time.Second}
	resp, err := cli.Get(url)
	if err != nil {
		l.Warn("background fetch failed", slog.String("url", url), slog.Any("err", err))
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		l.Warn("background fetch failed", slog.String("url", url), slog.Int("status", resp.StatusCode))
		return nil
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		l.Warn("background decode failed", slog.Any("err", err))
		return nil
	}
	return img
}
