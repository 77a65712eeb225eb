package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"dmlabels/internal/domain"
	"dmlabels/internal/normalize"
	"dmlabels/internal/pipeline"
	u "dmlabels/internal/utils"
)

const defaultFilename = "labels.pdf"

var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// LabelRequestParams holds validated input parameters.
type LabelRequestParams struct {
	Text     string
	Size     string
	Page     pipeline.PageParams
	Filename string
}

// LabelResponse is the JSON body of a successful upload.
type LabelResponse struct {
	ImgSrc    string `json:"img_src"`
	ImgBase64 string `json:"img_base64"`
	PDFBase64 string `json:"pdf_b64"`
	Pages     int    `json:"pages"`
	Symbols   int    `json:"symbols"`
	BatchID   string `json:"batch_id,omitempty"`
}

// LabelService bundles configuration and dependencies for label rendering.
type LabelService struct {
	Config *u.Config
	Redis  *redis.Client

	conv *pipeline.Converter
}

// NewLabelService creates a new LabelService instance. rdb may be nil.
func NewLabelService(cfg u.Config, rdb *redis.Client) *LabelService {
	return &LabelService{
		Config: &cfg,
		Redis:  rdb,
		conv:   pipeline.New(pipeline.ConfigFrom(cfg)),
	}
}

// HandleUpload renders a batch and returns the preview and PDF as base64.
func (svc *LabelService) HandleUpload(c *fiber.Ctx) error {
	params, err := validateAndExtractLabelParams(c, *svc.Config)
	if err != nil {
		return err
	}
	out, err := svc.process(c, params)
	if err != nil {
		return err
	}

	img := base64.StdEncoding.EncodeToString(out.Preview)
	return c.JSON(LabelResponse{
		ImgSrc:    "data:image/png;base64," + img,
		ImgBase64: img,
		PDFBase64: base64.StdEncoding.EncodeToString(out.PDF),
		Pages:     out.Pages,
		Symbols:   out.Symbols,
		BatchID:   out.BatchID,
	})
}

// HandlePDF renders a batch and returns the PDF as an attachment.
func (svc *LabelService) HandlePDF(c *fiber.Ctx) error {
	params, err := validateAndExtractLabelParams(c, *svc.Config)
	if err != nil {
		return err
	}
	out, err := svc.process(c, params)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+params.Filename)
	return c.Send(out.PDF)
}

// process serves a cached result or runs the pipeline.
func (svc *LabelService) process(c *fiber.Ctx, params *LabelRequestParams) (*cachedResult, error) {
	cacheKey := computeResultCacheKey(params)
	useCache := svc.Redis != nil && svc.Config.Cache.ResultCacheEnabled

	if useCache {
		if cached, err := getCachedResult(c.UserContext(), svc.Redis, cacheKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	ctx := c.UserContext()
	if secs := svc.Config.Pipeline.TimeoutSecs; secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	res, err := svc.conv.Convert(ctx, pipeline.Request{Text: params.Text, Size: params.Size, Page: params.Page})
	if err != nil {
		return nil, conversionError(c, err)
	}

	out := &cachedResult{
		Preview: res.PreviewPNG(),
		PDF:     res.PDF(),
		Pages:   res.Pages(),
		Symbols: len(res.Symbols),
		BatchID: res.BatchID,
	}
	if useCache {
		setCachedResult(c.UserContext(), svc.Redis, cacheKey, out, svc.Config.Cache.ResultCacheTTL)
	}

	u.Info("Labels generated",
		"batch_id", out.BatchID,
		"serials", out.Symbols,
		"size", res.Size,
		"pages", out.Pages,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
	)
	return out, nil
}

// conversionError maps pipeline failures onto HTTP errors. Request-caused
// failures keep their message; anything else is logged and hidden.
func conversionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		u.Error("Label generation timeout", "path", c.Path(), "error", err)
		return fiber.NewError(fiber.StatusRequestTimeout, "Label generation took too long")
	case errors.Is(err, domain.ErrInputTooLarge),
		errors.Is(err, domain.ErrOutputTooLarge),
		errors.Is(err, domain.ErrTooManySerials):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, err.Error())
	case domain.IsClientError(err):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	u.Error("Label generation failed", "path", c.Path(), "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Label generation failed")
}

// validateAndExtractLabelParams reads the serial source and the optional
// size, page and filename fields. A non-empty uploaded file takes
// precedence over pasted serials.
func validateAndExtractLabelParams(c *fiber.Ctx, cfg u.Config) (*LabelRequestParams, error) {
	file, hasFile, err := readUploadedFile(c, "file", cfg.Limits.MaxInputBytes)
	if err != nil {
		return nil, err
	}
	pasted := c.FormValue("serials")
	if len(pasted) > cfg.Limits.MaxInputBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Serial input exceeds %d bytes", cfg.Limits.MaxInputBytes))
	}
	text, err := normalize.Source(file, hasFile, pasted)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	filename := c.FormValue("filename")
	if filename == "" {
		filename = defaultFilename
	} else {
		if !strings.HasSuffix(filename, ".pdf") {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Filename must end with .pdf")
		}
		if !filenamePattern.MatchString(filename) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Filename contains invalid characters")
		}
	}

	return &LabelRequestParams{
		Text: text,
		Size: c.FormValue("size"),
		Page: pipeline.PageParams{
			Paper:       c.FormValue("paper"),
			Orientation: c.FormValue("orientation"),
			Margin:      c.FormValue("margin"),
		},
		Filename: filename,
	}, nil
}

// readUploadedFile returns the content of a multipart file field. A missing
// field or one submitted without a filename counts as absent.
func readUploadedFile(c *fiber.Ctx, field string, limit int) ([]byte, bool, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Filename == "" {
		return nil, false, nil
	}
	if limit > 0 && fh.Size > int64(limit) {
		return nil, false, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Uploaded file exceeds %d bytes", limit))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, false, fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	return data, true, nil
}

// SizeInfo describes one selectable size class.
type SizeInfo struct {
	Name   string  `json:"name"`
	EdgeMM float64 `json:"edge_mm"`
}

// HandleSizes lists the size classes and the default.
func (svc *LabelService) HandleSizes(c *fiber.Ctx) error {
	sizes := make([]SizeInfo, 0, len(domain.SizeClasses()))
	for _, s := range domain.SizeClasses() {
		sizes = append(sizes, SizeInfo{Name: s.String(), EdgeMM: s.EdgeMM()})
	}
	return c.JSON(fiber.Map{
		"sizes":   sizes,
		"default": domain.DefaultSize.String(),
	})
}
