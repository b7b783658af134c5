/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bluemark/internal/backend"
	"bluemark/internal/bridge"
	"bluemark/internal/config"
	"bluemark/internal/crash"
	"bluemark/internal/export"
	applog "bluemark/internal/log"
	"bluemark/internal/telemetry"
	"bluemark/internal/ui"
	"bluemark/internal/version"
)

func usage() {
	fmt.Println("BlueMark — blueprint markup editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bluemark version|-v|--version             Show version")
	fmt.Println("  bluemark open <blueprintID>                Load a blueprint and print a summary")
	fmt.Println("  bluemark saves <blueprintID>               List named saves for a blueprint")
	fmt.Println("  bluemark export <blueprintID> <out>        Flatten live markup to <out>.png or <out>.pdf")
	fmt.Println("  bluemark serve                             Run the persistence service (BMK_PG_DSN / DATABASE_URL)")
	fmt.Println("  bluemark ui <blueprintID>                  Launch desktop editor (build with -tags fyne)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer func() { crash.Recover(nil, nil) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("BlueMark — blueprint markup editor")
			fmt.Println(version.String())
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <blueprintID>")
				usage()
				os.Exit(2)
			}
			runOpen(l, args[2])
			return
		case "saves":
			if len(args) < 3 {
				fmt.Println("saves requires <blueprintID>")
				usage()
				os.Exit(2)
			}
			runSaves(l, args[2])
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <blueprintID> and <out>")
				usage()
				os.Exit(2)
			}
			runExport(l, args[2], args[3])
			return
		case "serve":
			runServe(l)
			return
		case "ui":
			if len(args) < 3 {
				fmt.Println("ui requires <blueprintID>")
				usage()
				os.Exit(2)
			}
			if err := ui.Run(args[2]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func newBridgeClient() (*bridge.Client, time.Duration, error) {
	cfg, token, err := config.Load()
	if err != nil {
		return nil, 0, err
	}
	timeout := cfg.Backend.EffectiveTimeout()
	return bridge.NewClient(cfg.Backend.BaseURL, token, timeout), timeout, nil
}

func runOpen(l *slog.Logger, blueprintID string) {
	client, timeout, err := newBridgeClient()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	l.Info("open blueprint", slog.String("blueprint", blueprintID))
	snap, bp, err := client.LoadLive(ctx, blueprintID)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("Blueprint: %s (job %s)\n", bp.ID, bp.JobID)
	fmt.Printf("Source image: %s\n", bp.SourceImageURL)
	fmt.Printf("Live markup: %d element(s), version %d\n", len(snap), bp.Version)
}

func runSaves(l *slog.Logger, blueprintID string) {
	client, timeout, err := newBridgeClient()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	saves, err := client.ListNamed(ctx, blueprintID)
	if err != nil {
		l.Error("list saves failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if len(saves) == 0 {
		fmt.Println("No named saves.")
		return
	}
	for _, s := range saves {
		shared := ""
		if s.IsShared {
			shared = " [shared]"
		}
		fmt.Printf("%s  %s%s  (updated %s)\n", s.ID, s.Name, shared, s.UpdatedAt.Local().Format(time.RFC3339))
	}
}

func runExport(l *slog.Logger, blueprintID, out string) {
	client, timeout, err := newBridgeClient()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	snap, bp, err := client.LoadLive(ctx, blueprintID)
	if err != nil {
		l.Error("load for export failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	background := fetchImage(l, bp.SourceImageURL)

	var logW, logH float64
	if background == nil {
		// No drawing to size against; use a letter-ish default canvas.
		logW, logH = 1600, 1200
	}
	format := "png"
	switch strings.ToLower(filepath.Ext(out)) {
	case ".pdf":
		format = "pdf"
		err = export.WritePDF(snap, out, export.PDFOptions{
			Background: background, LogicalW: logW, LogicalH: logH, Title: blueprintID,
		})
	default:
		err = export.WritePNG(snap, out, export.PNGOptions{
			Background: background, LogicalW: logW, LogicalH: logH,
		})
	}
	if err != nil {
		l.Error("export failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	telemetry.ExportCompleted(format, len(snap))
	fmt.Println("Exported", out)
}

func runServe(l *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := backend.Start(ctx, backend.ConfigFromEnv()); err != nil {
		l.Error("serve failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func fetchImage(l *slog.Logger, url string) image.Image {
	if url == "" {
		return nil
	}
	cli := &http.Client{Timeout: 20 * time.Second}
	resp, err := cli.Get(url)
	if err != nil {
		l.Warn("source image fetch failed", slog.String("url", url), slog.Any("err", err))
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		l.Warn("source image fetch failed", slog.String("url", url), slog.Int("status", resp.StatusCode))
		return nil
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		l.Warn("source image decode failed", slog.Any("err", err))
		return nil
	}
	return img
}
