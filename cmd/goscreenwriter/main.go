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
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/render"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/version"
)

func usage() {
	fmt.Println("Go Screenwriter — screenplay editor engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goscreenwriter version|-v|--version          Show version")
	fmt.Println("  goscreenwriter init <dir> <name>             Create a new screenplay project at <dir>")
	fmt.Println("  goscreenwriter open <dir>                    Open project at <dir> and print summary")
	fmt.Println("  goscreenwriter save <dir>                    Save project at <dir> (creates backup)")
	fmt.Println("  goscreenwriter import <dir> <file>           Import a legacy tagged-text script into the project")
	fmt.Println("  goscreenwriter export <dir> <out.pdf|out.txt> Export the script to exports/")
	fmt.Println("  goscreenwriter search <dir> <text>           Full-text search over the script lines")
	fmt.Println("  goscreenwriter history <dir> [limit]         List saved revisions")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Screenwriter — screenplay editor engine")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			name := args[3]
			l.Info("init project", slog.String("root", abs), slog.String("name", name))
			h, err := storage.InitProject(abs, name, nil)
			if err != nil {
				fail(l, "init failed", err)
			}
			ph = h
			fmt.Println("Created project at", abs)
			return
		case "open":
			ph = mustOpen(l, args)
			cfg, _, err := config.Load()
			if err != nil {
				fail(l, "load config failed", err)
			}
			pages := render.RequiredPages(ph.Doc.LineCount(), cfg.Editor.MaxLinesPerPage)
			fmt.Printf("Opened project: %s\n", ph.Name)
			fmt.Printf("Lines: %d\n", ph.Doc.LineCount())
			fmt.Printf("Pages: %d (at %d lines per page)\n", pages, cfg.Editor.MaxLinesPerPage)
			fmt.Println("Root:", ph.Root)
			return
		case "save":
			ph = mustOpen(l, args)
			if err := storage.Save(ph); err != nil {
				fail(l, "save failed", err)
			}
			if err := storage.UpdateIndex(context.Background(), ph); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
			fmt.Println("Saved project and created a backup of previous manifest (if any).")
			return
		case "import":
			if len(args) < 4 {
				fmt.Println("import requires <dir> and <file>")
				usage()
				os.Exit(2)
			}
			ph = mustOpen(l, args)
			src := args[3]
			l.Info("import legacy script", slog.String("file", src))
			if err := storage.ImportLegacyScript(ph, src); err != nil {
				fail(l, "import failed", err)
			}
			if err := storage.UpdateIndex(context.Background(), ph); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
			fmt.Printf("Imported %s (%d lines).\n", src, ph.Doc.LineCount())
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and <out.pdf|out.txt>")
				usage()
				os.Exit(2)
			}
			ph = mustOpen(l, args)
			out := args[3]
			var err error
			switch strings.ToLower(filepath.Ext(out)) {
			case ".pdf":
				cfg, _, cerr := config.Load()
				if cerr != nil {
					fail(l, "load config failed", cerr)
				}
				err = export.ExportPDF(ph, out, export.PDFOptions{
					Title:           ph.Name,
					MaxLinesPerPage: cfg.Editor.MaxLinesPerPage,
				})
			case ".txt":
				err = export.ExportLegacyText(ph, out)
			default:
				err = fmt.Errorf("unsupported export format %q (use .pdf or .txt)", filepath.Ext(out))
			}
			if err != nil {
				fail(l, "export failed", err)
			}
			fmt.Println("Exported to", filepath.Join(ph.Root, "exports", filepath.Base(out)))
			return
		case "search":
			if len(args) < 4 {
				fmt.Println("search requires <dir> and <text>")
				usage()
				os.Exit(2)
			}
			ph = mustOpen(l, args)
			ctx := context.Background()
			if err := storage.UpdateIndex(ctx, ph); err != nil {
				fail(l, "index update failed", err)
			}
			results, err := storage.Search(ctx, ph.Root, storage.SearchQuery{Text: strings.Join(args[3:], " ")})
			if err != nil {
				fail(l, "search failed", err)
			}
			for _, res := range results {
				fmt.Printf("%4d  %-12s %s\n", res.Position+1, res.Format, res.Snippet)
			}
			fmt.Printf("%d match(es)\n", len(results))
			return
		case "history":
			ph = mustOpen(l, args)
			limit := 0
			if len(args) >= 4 {
				limit, _ = strconv.Atoi(args[3])
			}
			revs, err := storage.ListRevisions(context.Background(), ph, limit)
			if err != nil {
				fail(l, "history failed", err)
			}
			for _, r := range revs {
				fmt.Printf("%s  %d bytes\n", r.TS.Format("2006-01-02 15:04:05"), len(r.Payload))
			}
			fmt.Printf("%d revision(s)\n", len(revs))
			return
		}
	}

	usage()
}

func mustOpen(l *slog.Logger, args []string) *storage.ProjectHandle {
	if len(args) < 3 {
		fmt.Println(args[1], "requires <dir>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[2])
	l.Info("open project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
