package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
)

type ClassifyHandler struct {
	classifier *classifier.Classifier
	ingest     *service.IngestService
}

func NewClassifyHandler(c *classifier.Classifier, ingest *service.IngestService) *ClassifyHandler {
	return &ClassifyHandler{classifier: c, ingest: ingest}
}

// Categorize handles POST /api/categorize. It runs the classifier on the
// given signals only; nothing is fetched. With "explain" the full score
// table is returned.
func (h *ClassifyHandler) Categorize(c fiber.Ctx) error {
	var req model.ClassifyRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	var meta *classifier.Metadata
	if req.SiteName != "" || req.Type != "" || len(req.Keywords) > 0 {
		meta = &classifier.Metadata{SiteName: req.SiteName, Type: req.Type, Keywords: req.Keywords}
	}
	res := h.classifier.Classify(classifier.Input{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Metadata:    meta,
	})
	Metrics.Classifications.WithLabelValues(res.Category).Inc()

	if !req.Explain {
		res.Scores = nil
	}
	return c.JSON(res)
}

// Suggest handles POST /api/suggest. It fetches page metadata and returns
// the suggested category; autoApply is false when the user already chose a
// category.
func (h *ClassifyHandler) Suggest(c fiber.Ctx) error {
	var req model.SuggestRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	s, err := h.ingest.Suggest(c.Context(), req)
	if err != nil {
		return serviceError(c, err, "Page", "suggest category")
	}
	Metrics.Classifications.WithLabelValues(s.Category).Inc()
	return c.JSON(s)
}
