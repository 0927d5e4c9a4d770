/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a screenplay document into interchange formats. The
// PDF exporter follows standard screenplay layout conventions (Courier 12pt,
// per-format left indents) and paginates the same way the editor does: a
// fixed number of lines per page, not measured height.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goscreenwriter/internal/render"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// PDFOptions controls PDF export behavior. Units are points.
type PDFOptions struct {
	// Title printed into the PDF metadata; defaults to the project name.
	Title string
	// MaxLinesPerPage overrides the editor's page capacity (0 uses the
	// default capacity).
	MaxLinesPerPage int
	// FontSize in points (0 means 12).
	FontSize float64
}

// Per-format left indents in points, measured from the page edge. These
// follow the common screenplay convention on US Letter.
var indents = map[script.Format]float64{
	script.FormatHeader:     108, // 1.5"
	script.FormatAction:     108,
	script.FormatSpeaker:    266, // 3.7"
	script.FormatDialog:     180, // 2.5"
	script.FormatDirections: 223, // 3.1"
}

const (
	pageWidth  = 612.0 // US Letter in points
	pageHeight = 792.0
	topMargin  = 72.0
)

// ExportPDF writes the document as a multi-page screenplay PDF at outPath.
// A relative outPath lands in the project's exports folder.
func ExportPDF(ph *storage.ProjectHandle, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	title := opt.Title
	if title == "" {
		title = ph.Name
	}
	perPage := opt.MaxLinesPerPage
	if perPage <= 0 {
		perPage = render.DefaultMaxLinesPerPage
	}
	fontSize := opt.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}
	lineHeight := (pageHeight - 2*topMargin) / float64(perPage)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
		OrientationStr: "",
	})
	pdf.SetTitle(title, true)
	pdf.SetAuthor("goscreenwriter", false)
	// Courier is the screenplay standard and stays vector without embedding.
	pdf.SetFont("Courier", "", fontSize)

	lines := ph.Doc.Lines()
	for i, ln := range lines {
		slot := i % perPage
		if slot == 0 {
			pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight})
		}
		y := topMargin + float64(slot)*lineHeight + fontSize

		text := ln.Content
		style := ""
		x := indents[script.FormatAction]
		switch ln.Format {
		case script.FormatSpeaker:
			x = indents[script.FormatSpeaker]
			text = strings.ToUpper(text)
		case script.FormatHeader:
			x = indents[script.FormatHeader]
			text = strings.ToUpper(text)
			style = "B"
		case script.FormatDirections:
			x = indents[script.FormatDirections]
			if text != "" && !strings.HasPrefix(text, "(") {
				text = "(" + text + ")"
			}
		case script.FormatChapterBreak:
			style = "B"
			x = centeredX(pdf, text)
		default:
			x = indents[ln.Format]
			if x == 0 {
				x = indents[script.FormatAction]
			}
		}
		pdf.SetFont("Courier", style, fontSize)
		pdf.Text(x, y, text)
	}
	pdf.SetFont("Courier", "", fontSize)

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func centeredX(pdf *gofpdf.Fpdf, text string) float64 {
	w := pdf.GetStringWidth(text)
	x := (pageWidth - w) / 2
	if x < 0 {
		x = 0
	}
	return x
}
