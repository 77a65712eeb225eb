package pipeline

import (
	"runtime"
	"strconv"
	"strings"

	"dmlabels/internal/domain"
	"dmlabels/internal/layout"
	"dmlabels/internal/raster"
	u "dmlabels/internal/utils"
)

const (
	mmPerInch = 25.4
	minMargin = 0.1
	maxMargin = 2.0
)

// Config bounds and shapes every conversion run by a Converter.
type Config struct {
	Workers       int
	MaxInputBytes int
	MaxSerials    int
	MaxPDFBytes   int
	Raster        raster.Options
	Layout        layout.Options

	papers       map[string]u.PaperSize
	defaultPaper string
}

// ConfigFrom maps the service configuration onto pipeline settings.
func ConfigFrom(cfg u.Config) Config {
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c := Config{
		Workers:       workers,
		MaxInputBytes: cfg.Limits.MaxInputBytes,
		MaxSerials:    cfg.Limits.MaxSerials,
		MaxPDFBytes:   cfg.Limits.MaxPDFBytes,
		Raster: raster.Options{
			DPI:              cfg.Symbol.DPI,
			QuietZone:        cfg.Symbol.QuietZoneModules,
			MinDotsPerModule: cfg.Symbol.MinDotsPerModule,
			MinModuleMM:      cfg.Symbol.MinModuleMM,
		},
		Layout: layout.Options{
			MarginMM:      cfg.PDF.Margin * mmPerInch,
			CellPaddingMM: cfg.PDF.CellPaddingMM,
			LabelHeightMM: cfg.PDF.LabelHeightMM,
			Annotate:      cfg.PDF.Annotate,
			MaxPerPage:    cfg.PDF.MaxPerPage,
			Compress:      cfg.PDF.Compress,
			Title:         cfg.PDF.Title,
			Preview: layout.PreviewOptions{
				MaxSymbols: cfg.Preview.MaxSymbols,
				ThumbPx:    cfg.Preview.ThumbPx,
				Columns:    cfg.Preview.Columns,
				GapPx:      8,
			},
		},
		papers:       make(map[string]u.PaperSize, len(cfg.PDF.PaperSizes)),
		defaultPaper: strings.ToUpper(cfg.PDF.DefaultPaper),
	}
	for name, size := range cfg.PDF.PaperSizes {
		c.papers[strings.ToUpper(name)] = size
	}
	if paper, ok := c.papers[c.defaultPaper]; ok {
		c.Layout.PageWidthMM = paper.Width * mmPerInch
		c.Layout.PageHeightMM = paper.Height * mmPerInch
	}
	return c
}

// PageParams are the optional page parameters of a request, as received.
type PageParams struct {
	Paper       string
	Orientation string
	Margin      string // inches
}

// Page resolves p against the configured paper sizes. Empty fields keep the
// configured defaults.
func (c Config) Page(p PageParams) (layout.Options, error) {
	opts := c.Layout

	if name := strings.ToUpper(strings.TrimSpace(p.Paper)); name != "" {
		paper, ok := c.papers[name]
		if !ok {
			return opts, &domain.InvalidParameterError{Name: "paper", Value: p.Paper, Reason: "unknown paper size"}
		}
		opts.PageWidthMM = paper.Width * mmPerInch
		opts.PageHeightMM = paper.Height * mmPerInch
	}

	switch strings.ToLower(strings.TrimSpace(p.Orientation)) {
	case "", "portrait":
	case "landscape":
		opts.PageWidthMM, opts.PageHeightMM = opts.PageHeightMM, opts.PageWidthMM
	default:
		return opts, &domain.InvalidParameterError{Name: "orientation", Value: p.Orientation, Reason: "must be portrait or landscape"}
	}

	if m := strings.TrimSpace(p.Margin); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < minMargin || v > maxMargin {
			return opts, &domain.InvalidParameterError{Name: "margin", Value: p.Margin, Reason: "must be between 0.1 and 2.0 inches"}
		}
		opts.MarginMM = v * mmPerInch
	}
	return opts, nil
}
