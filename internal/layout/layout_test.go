package layout

import (
	"bytes"
	"fmt"
	"image/png"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmlabels/internal/datamatrix"
	"dmlabels/internal/domain"
	"dmlabels/internal/raster"
)

var pageObject = regexp.MustCompile(`/Type /Page\n`)

func renderAll(t *testing.T, size domain.SizeClass, serials ...string) []*raster.Symbol {
	t.Helper()
	out := make([]*raster.Symbol, 0, len(serials))
	for i, s := range serials {
		rec := domain.SerialRecord{Text: s, Index: i}
		g, err := datamatrix.EncodeRecord(rec)
		require.NoError(t, err)
		sym, err := raster.Render(rec, g, size, raster.DefaultOptions())
		require.NoError(t, err)
		out = append(out, sym)
	}
	return out
}

func uncompressed() Options {
	opts := DefaultOptions()
	opts.Compress = false
	return opts
}

func TestComposeTwoSerialsOnOnePage(t *testing.T) {
	syms := renderAll(t, domain.SizeMedium, "ABC123", "XYZ999")

	doc, err := Compose(syms, domain.SizeMedium, uncompressed())
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 2, doc.SymbolCount())
	assert.Len(t, pageObject.FindAll(doc.PDF, -1), 1)
	assert.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF-")))

	pdf := string(doc.PDF)
	first := strings.Index(pdf, "(ABC123) Tj")
	second := strings.Index(pdf, "(XYZ999) Tj")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)

	img, err := png.Decode(bytes.NewReader(doc.PreviewPNG))
	require.NoError(t, err)
	assert.Equal(t, doc.PreviewImage.Bounds(), img.Bounds())
}

func TestPaginateFillsPagesInOrder(t *testing.T) {
	syms := make([]*raster.Symbol, 500)
	for i := range syms {
		syms[i] = &raster.Symbol{SourceIndex: i, Serial: fmt.Sprintf("S%03d", i), PhysicalSizeMM: 59.6}
	}
	opts := DefaultOptions()
	pages, grid, err := Paginate(syms, domain.SizeLarge, opts)
	require.NoError(t, err)

	k := grid.PerPage
	require.Greater(t, k, 0)
	assert.Len(t, pages, (500+k-1)/k)

	next := 0
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		if i < len(pages)-1 {
			assert.Len(t, p.Placements, k, "page %d must be full", p.Number)
		}
		for _, pl := range p.Placements {
			assert.Equal(t, next, pl.Symbol.SourceIndex)
			next++
		}
	}
	assert.Equal(t, 500, next)
}

func TestPaginateKeepsDuplicatesAndRestoresOrder(t *testing.T) {
	syms := []*raster.Symbol{
		{SourceIndex: 2, Serial: "A", PhysicalSizeMM: 17},
		{SourceIndex: 0, Serial: "A", PhysicalSizeMM: 17},
		{SourceIndex: 1, Serial: "B", PhysicalSizeMM: 17},
	}
	pages, _, err := Paginate(syms, domain.SizeSmall, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, pages, 1)

	var got []string
	for _, pl := range pages[0].Placements {
		got = append(got, fmt.Sprintf("%d:%s", pl.Symbol.SourceIndex, pl.Symbol.Serial))
	}
	assert.Equal(t, []string{"0:A", "1:B", "2:A"}, got)
}

func TestPlacementsStayInsideCells(t *testing.T) {
	syms := renderAll(t, domain.SizeSmall, "1", "22", "333", "4444", "55555")
	pages, grid, err := Paginate(syms, domain.SizeSmall, DefaultOptions())
	require.NoError(t, err)

	for _, pl := range pages[0].Placements {
		assert.GreaterOrEqual(t, pl.X, pl.CellX)
		assert.GreaterOrEqual(t, pl.Y, pl.CellY)
		assert.LessOrEqual(t, pl.X+pl.SizeMM, pl.CellX+grid.CellW+1e-9)
		assert.LessOrEqual(t, pl.Y+pl.SizeMM, pl.CellY+grid.CellH+1e-9)
		assert.InDelta(t, pl.Symbol.PhysicalSizeMM, pl.SizeMM, 1e-9)
	}
}

func TestPaginateEmptyAndTinyPage(t *testing.T) {
	_, _, err := Paginate(nil, domain.SizeSmall, DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrNoContent)

	opts := DefaultOptions()
	opts.PageWidthMM = 30
	opts.PageHeightMM = 30
	syms := []*raster.Symbol{{SourceIndex: 0, Serial: "A", PhysicalSizeMM: 59}}
	_, _, err = Paginate(syms, domain.SizeLarge, opts)
	assert.ErrorIs(t, err, domain.ErrPageTooSmall)
}

func TestMaxPerPageCapsGrid(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPerPage = 3
	syms := make([]*raster.Symbol, 7)
	for i := range syms {
		syms[i] = &raster.Symbol{SourceIndex: i, PhysicalSizeMM: 17}
	}
	pages, grid, err := Paginate(syms, domain.SizeSmall, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, grid.PerPage)
	assert.Len(t, pages, 3)
	assert.Len(t, pages[2].Placements, 1)
}

func TestRenderPDFPageCount(t *testing.T) {
	opts := uncompressed()
	opts.MaxPerPage = 2
	syms := renderAll(t, domain.SizeSmall, "A1", "A2", "A3", "A4", "A5")
	doc, err := Compose(syms, domain.SizeSmall, opts)
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 3)
	assert.Len(t, pageObject.FindAll(doc.PDF, -1), 3)
}

func TestRenderPDFIsDeterministic(t *testing.T) {
	syms := renderAll(t, domain.SizeMedium, "ABC123", "XYZ999")
	a, err := Compose(syms, domain.SizeMedium, DefaultOptions())
	require.NoError(t, err)
	// Document dates have one-second resolution.
	time.Sleep(1100 * time.Millisecond)
	b, err := Compose(syms, domain.SizeMedium, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.PDF, b.PDF)

	doc, err := Compose(syms, domain.SizeMedium, uncompressed())
	require.NoError(t, err)
	assert.Contains(t, string(doc.PDF), "/CreationDate (D:20000101")
	assert.Contains(t, string(doc.PDF), "/ModDate (D:20000101")
}

func TestAnnotationTruncatesLongSerials(t *testing.T) {
	long := strings.Repeat("W", 120)
	syms := renderAll(t, domain.SizeLarge, long)
	doc, err := Compose(syms, domain.SizeLarge, uncompressed())
	require.NoError(t, err)
	assert.NotContains(t, string(doc.PDF), "("+long+")")
	assert.Contains(t, string(doc.PDF), "...) Tj")

	opts := uncompressed()
	opts.Annotate = false
	doc, err = Compose(syms, domain.SizeLarge, opts)
	require.NoError(t, err)
	assert.NotContains(t, string(doc.PDF), ") Tj")
}

func TestPreviewSingleAndGrid(t *testing.T) {
	syms := renderAll(t, domain.SizeSmall, "ONE")
	img, data, err := Preview(syms, DefaultPreviewOptions())
	require.NoError(t, err)
	assert.Equal(t, syms[0].Image, img)
	assert.Equal(t, syms[0].PNG, data)

	syms = renderAll(t, domain.SizeSmall, "1", "2", "3", "4", "5", "6")
	opts := PreviewOptions{MaxSymbols: 5, ThumbPx: 40, Columns: 2, GapPx: 4}
	img, data, err = Preview(syms, opts)
	require.NoError(t, err)
	// 5 thumbnails in 2 columns -> 3 rows.
	assert.Equal(t, 2*44+4, img.Bounds().Dx())
	assert.Equal(t, 3*44+4, img.Bounds().Dy())
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	_, _, err = Preview(nil, opts)
	assert.ErrorIs(t, err, domain.ErrNoContent)
}
