package layout

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	labelFontPt = 7.0
	creator     = "dmlabels"
)

// documentDate is stamped on every document so identical batches produce
// identical bytes.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// RenderPDF writes pages into a single PDF. Each symbol is drawn at its
// physical size; its caption is printed inside its own cell only.
func RenderPDF(pages []PrintPage, grid CellGrid, opts Options) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: opts.PageWidthMM, Ht: opts.PageHeightMM},
	})
	pdf.SetCompression(opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator(creator, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	for _, page := range pages {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", labelFontPt)
		for _, pl := range page.Placements {
			name := fmt.Sprintf("symbol-%d", pl.Symbol.SourceIndex)
			pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(pl.Symbol.PNG))
			pdf.ImageOptions(name, pl.X, pl.Y, pl.SizeMM, pl.SizeMM, false, imgOpts, 0, "")

			if opts.Annotate {
				text := fitText(pdf, tr(pl.Symbol.Serial), grid.CellW-1)
				w := pdf.GetStringWidth(text)
				baseline := pl.CellY + grid.SymbolAreaMM + opts.LabelHeightMM*0.5
				pdf.Text(pl.CellX+(grid.CellW-w)/2, baseline, text)
			}
		}
		if pdf.Err() {
			break
		}
	}
	if pdf.Err() {
		return nil, fmt.Errorf("layout: build pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("layout: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText shortens s with a trailing "..." until it is at most maxW wide.
func fitText(pdf *fpdf.Fpdf, s string, maxW float64) string {
	if pdf.GetStringWidth(s) <= maxW {
		return s
	}
	for len(s) > 0 {
		s = s[:len(s)-1]
		if pdf.GetStringWidth(s+"...") <= maxW {
			return s + "..."
		}
	}
	return ""
}
