// Package pipeline drives one conversion: normalize the input, encode and
// rasterize every serial in parallel, then compose the pages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dmlabels/internal/datamatrix"
	"dmlabels/internal/domain"
	"dmlabels/internal/layout"
	"dmlabels/internal/normalize"
	"dmlabels/internal/raster"
	u "dmlabels/internal/utils"
)

// Request is one batch as submitted by a client.
type Request struct {
	Text string
	Size string
	Page PageParams
}

// Result is the outcome of a successful conversion. BatchID identifies the
// run in logs; it never appears in the document.
type Result struct {
	BatchID  string
	Size     domain.SizeClass
	Symbols  []*raster.Symbol
	Document *layout.Document
}

func (r *Result) PDF() []byte        { return r.Document.PDF }
func (r *Result) PreviewPNG() []byte { return r.Document.PreviewPNG }
func (r *Result) Pages() int         { return len(r.Document.Pages) }

// Converter runs conversions. It holds no per-request state and is safe
// for concurrent use.
type Converter struct {
	cfg Config
}

func New(cfg Config) *Converter {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Converter{cfg: cfg}
}

// Config returns the converter's settings.
func (c *Converter) Config() Config {
	return c.cfg
}

// Convert produces the preview and PDF for req. Any failing serial fails
// the whole request; no partial document is returned.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if c.cfg.MaxInputBytes > 0 && len(req.Text) > c.cfg.MaxInputBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", domain.ErrInputTooLarge, len(req.Text), c.cfg.MaxInputBytes)
	}
	records, size, err := normalize.Normalize(req.Text, req.Size)
	if err != nil {
		return nil, err
	}
	if c.cfg.MaxSerials > 0 && len(records) > c.cfg.MaxSerials {
		return nil, fmt.Errorf("%w: %d serials, limit is %d", domain.ErrTooManySerials, len(records), c.cfg.MaxSerials)
	}
	page, err := c.cfg.Page(req.Page)
	if err != nil {
		return nil, err
	}

	symbols, err := c.renderAll(ctx, records, size)
	if err != nil {
		return nil, err
	}
	doc, err := layout.Compose(symbols, size, page)
	if err != nil {
		return nil, err
	}
	if c.cfg.MaxPDFBytes > 0 && len(doc.PDF) > c.cfg.MaxPDFBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", domain.ErrOutputTooLarge, len(doc.PDF), c.cfg.MaxPDFBytes)
	}

	batchID := uuid.NewString()
	u.Debug("Batch converted",
		"batch_id", batchID,
		"serials", len(records),
		"size", size,
		"pages", len(doc.Pages),
		"pdf_bytes", len(doc.PDF),
		"elapsed", time.Since(start).String(),
	)
	return &Result{BatchID: batchID, Size: size, Symbols: symbols, Document: doc}, nil
}

// renderAll encodes and rasterizes every record on a bounded worker group.
// Each result lands in the slot of its source index, so completion order
// never affects output order.
func (c *Converter) renderAll(ctx context.Context, records []domain.SerialRecord, size domain.SizeClass) ([]*raster.Symbol, error) {
	symbols := make([]*raster.Symbol, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			grid, err := datamatrix.EncodeRecord(rec)
			if err != nil {
				return err
			}
			sym, err := raster.Render(rec, grid, size, c.cfg.Raster)
			if err != nil {
				return err
			}
			symbols[i] = sym
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The parent may be cancelled between the last task and Wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return symbols, nil
}
