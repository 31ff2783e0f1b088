package handler

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

// MaxImportSize bounds an uploaded bookmark file.
const MaxImportSize = 10 << 20

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Export handles GET /api/export?format=html|json|csv
// Serves the user's bookmarks as a file download.
func (h *TransferHandler) Export(c fiber.Ctx) error {
	format := fiber.Query[string](c, "format", "html")

	exp, err := h.svc.Export(c.Context(), middleware.UserID(c), format)
	if err != nil {
		return serviceError(c, err, "Export", "export bookmarks")
	}

	c.Attachment(exp.Filename)
	c.Set(fiber.HeaderContentType, exp.ContentType)
	c.Set("X-Bookmark-Count", strconv.Itoa(exp.Count))
	return c.Send(exp.Data)
}

// Import handles POST /api/import?format=&autoCategorize=true. The file is
// either the raw request body or a multipart "file" field; without a
// format parameter the format is taken from the file extension.
func (h *TransferHandler) Import(c fiber.Ctx) error {
	format := fiber.Query[string](c, "format")

	var r io.Reader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FILE", "multipart field \"file\" is required")
		}
		if fh.Size > MaxImportSize {
			return middleware.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "bookmark file must be at most 10 MB")
		}
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
		}
		f, err := fh.Open()
		if err != nil {
			return serviceError(c, err, "File", "read upload")
		}
		defer f.Close()
		r = f
	} else {
		body := c.Body()
		if len(body) == 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FILE", "request body is empty")
		}
		if len(body) > MaxImportSize {
			return middleware.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "bookmark file must be at most 10 MB")
		}
		r = bytes.NewReader(body)
	}

	if format == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM", "format query parameter is required")
	}

	res, err := h.svc.Import(c.Context(), middleware.UserID(c), format, r, fiber.Query[bool](c, "autoCategorize"))
	if err != nil {
		return serviceError(c, err, "Import", "import bookmarks")
	}

	Metrics.BookmarksSaved.WithLabelValues("import").Add(float64(res.Imported))
	return c.JSON(res)
}
