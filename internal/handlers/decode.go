package handlers

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/makiuchi-d/gozxing"
	zxdm "github.com/makiuchi-d/gozxing/datamatrix"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"

	u "dmlabels/internal/utils"
)

var decodableExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// DecodeResponse is the JSON body of a successful decode. Text is the first
// symbol found; Texts lists every distinct symbol in detection order.
type DecodeResponse struct {
	Text  string   `json:"text"`
	Texts []string `json:"texts"`
}

// HandleDecode reads the Data Matrix symbols in an uploaded image.
func (svc *LabelService) HandleDecode(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil || fh.Filename == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Please select an image file.")
	}
	if !decodableExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return fiber.NewError(fiber.StatusBadRequest, "Unsupported file format. Please upload a valid image.")
	}
	if limit := svc.Config.Server.BodyLimitMB; limit > 0 && fh.Size > int64(limit)<<20 {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Uploaded image is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Decoding failed: not a readable image")
	}

	texts, err := decodeDataMatrix(img)
	if err != nil {
		u.Debug("No Data Matrix symbol found", "filename", fh.Filename, "error", err)
		return fiber.NewError(fiber.StatusUnprocessableEntity, "No Data Matrix symbol found in image")
	}
	return c.JSON(DecodeResponse{Text: texts[0], Texts: texts})
}

// maxSymbolsPerImage bounds the search on a full label sheet.
const maxSymbolsPerImage = 256

// decodeDataMatrix returns the text of every symbol in img. Clean,
// axis-aligned renderings of a single symbol take the fast path. Otherwise
// each detected symbol is painted over and detection repeats until nothing
// more is found.
func decodeDataMatrix(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}
	reader := zxdm.NewDataMatrixReader()

	pure := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_PURE_BARCODE: true}
	if res, err := reader.Decode(bmp, pure); err == nil {
		return []string{res.GetText()}, nil
	}

	hard := map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
	canvas := image.NewRGBA(img.Bounds())
	xdraw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, xdraw.Src)

	var texts []string
	seen := make(map[string]bool)
	var lastErr error
	for attempt := 0; attempt < maxSymbolsPerImage; attempt++ {
		res, err := reader.Decode(bmp, hard)
		if err != nil {
			lastErr = err
			break
		}
		if !seen[res.GetText()] {
			seen[res.GetText()] = true
			texts = append(texts, res.GetText())
		}
		area, ok := symbolArea(res.GetResultPoints(), canvas.Bounds())
		if !ok {
			break
		}
		xdraw.Draw(canvas, area, image.White, image.Point{}, xdraw.Src)
		if bmp, err = gozxing.NewBinaryBitmapFromImage(canvas); err != nil {
			return nil, err
		}
	}
	if len(texts) == 0 {
		return nil, lastErr
	}
	return texts, nil
}

// symbolArea is the bounding box of a detection's corner points, grown by a
// quiet-zone margin and clipped to bounds.
func symbolArea(points []gozxing.ResultPoint, bounds image.Rectangle) (image.Rectangle, bool) {
	if len(points) == 0 {
		return image.Rectangle{}, false
	}
	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.GetX()), max(maxX, p.GetX())
		minY, maxY = min(minY, p.GetY()), max(maxY, p.GetY())
	}
	margin := max(2, int(max(maxX-minX, maxY-minY)/8))
	r := image.Rect(int(minX)-margin, int(minY)-margin, int(maxX)+margin+1, int(maxY)+margin+1).Intersect(bounds)
	return r, !r.Empty()
}
