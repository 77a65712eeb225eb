package raster

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxdm "github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmlabels/internal/datamatrix"
	"dmlabels/internal/domain"
)

func renderText(t *testing.T, text string, size domain.SizeClass) *Symbol {
	t.Helper()
	g, err := datamatrix.Encode(text)
	require.NoError(t, err)
	sym, err := Render(domain.SerialRecord{Text: text, Index: 3}, g, size, DefaultOptions())
	require.NoError(t, err)
	return sym
}

func TestRender_SizeMonotonicAndIntegerBlocks(t *testing.T) {
	opts := DefaultOptions()
	prev := 0
	for _, sc := range domain.SizeClasses() {
		sym := renderText(t, "ABC123", sc)
		edge := sym.EdgePx()
		assert.GreaterOrEqual(t, edge, prev, "size %s", sc)
		prev = edge

		total := sym.Modules + 2*opts.QuietZone
		assert.Zero(t, edge%total, "edge must be a whole number of module blocks")
		assert.Equal(t, edge/total, sym.ModulePx)
		assert.LessOrEqual(t, sym.PhysicalSizeMM, sc.EdgeMM()+0.01)
		assert.Equal(t, 3, sym.SourceIndex)
	}
}

func TestRender_HardEdgesAndQuietZone(t *testing.T) {
	sym := renderText(t, "XYZ999", domain.SizeSmall)
	g, err := datamatrix.Encode("XYZ999")
	require.NoError(t, err)
	q := DefaultOptions().QuietZone
	b := sym.ModulePx

	for _, v := range sym.Image.Pix {
		if v != 0 && v != 0xFF {
			t.Fatalf("found interpolated pixel value %d", v)
		}
	}
	for x := 0; x < sym.EdgePx(); x++ {
		assert.Equal(t, uint8(0xFF), sym.Image.GrayAt(x, 0).Y)
		assert.Equal(t, uint8(0xFF), sym.Image.GrayAt(x, q*b-1).Y)
	}
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			want := uint8(0xFF)
			if g.Dark(r, c) {
				want = 0
			}
			x, y := (c+q)*b, (r+q)*b
			assert.Equal(t, want, sym.Image.GrayAt(x, y).Y)
			assert.Equal(t, want, sym.Image.GrayAt(x+b-1, y+b-1).Y)
		}
	}
}

func TestRender_PNGDecodesBackToText(t *testing.T) {
	sym := renderText(t, "80ce01234005409ea0", domain.SizeMedium)

	img, err := png.Decode(bytes.NewReader(sym.PNG))
	require.NoError(t, err)
	assert.Equal(t, sym.EdgePx(), img.Bounds().Dx())

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxdm.NewDataMatrixReader().Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "80ce01234005409ea0", res.GetText())
}

func TestRender_SymbolTooSmall(t *testing.T) {
	text := strings.Repeat("A", datamatrix.MaxTextLength)
	g, err := datamatrix.Encode(text)
	require.NoError(t, err)

	_, err = Render(domain.SerialRecord{Text: text, Index: 9}, g, domain.SizeSmall, DefaultOptions())
	var small *domain.SymbolTooSmallError
	require.ErrorAs(t, err, &small)
	assert.Equal(t, 9, small.Index)
	assert.Equal(t, domain.SizeSmall, small.Size)
	assert.Less(t, small.ModuleMM, small.MinMM)

	sym, err := Render(domain.SerialRecord{Text: text}, g, domain.SizeLarge, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 144, sym.Modules)
}

func TestGeometry_ClampsToMinimumDots(t *testing.T) {
	opts := DefaultOptions()
	opts.MinDotsPerModule = 5
	block, mm := Geometry(144, domain.SizeSmall, opts)
	assert.Equal(t, 5, block)
	assert.InDelta(t, 5.0/300*25.4, mm, 1e-9)
}

func TestRender_RejectsUnknownSize(t *testing.T) {
	g, err := datamatrix.Encode("A")
	require.NoError(t, err)
	_, err = Render(domain.SerialRecord{Text: "A"}, g, domain.SizeClass("poster"), DefaultOptions())
	var sizeErr *domain.UnsupportedSizeError
	assert.ErrorAs(t, err, &sizeErr)
}
