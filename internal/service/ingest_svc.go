package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
)

// IngestService turns a URL into a bookmark: fetch metadata, suggest a
// category, apply it unless the user already chose one, persist.
type IngestService struct {
	classifier *classifier.Classifier
	fetcher    MetadataFetcher
	bookmarks  BookmarkStore
	categories *CategoryService
	logger     zerolog.Logger
	newID      func() string
}

func NewIngestService(c *classifier.Classifier, fetcher MetadataFetcher, bookmarks BookmarkStore, categories *CategoryService, logger zerolog.Logger) *IngestService {
	return &IngestService{
		classifier: c,
		fetcher:    fetcher,
		bookmarks:  bookmarks,
		categories: categories,
		logger:     logger.With().Str("component", "ingest").Logger(),
		newID:      uuid.NewString,
	}
}

// Suggest fetches metadata for req.URL and classifies the bookmark. The
// user's title and description take precedence over fetched ones.
func (s *IngestService) Suggest(ctx context.Context, req model.SuggestRequest) (*model.Suggestion, error) {
	pageURL, err := NormalizeBookmarkURL(req.URL)
	if err != nil {
		return nil, err
	}

	// Private and loopback hosts are never fetched; the bookmark is still
	// classified from what the caller sent.
	meta := metadata.Empty(pageURL)
	if IsFetchable(pageURL) {
		meta = s.fetcher.Fetch(ctx, pageURL)
	}

	title := firstNonEmpty(req.Title, meta.Title)
	description := firstNonEmpty(req.Description, meta.Description)

	res := s.classifier.Classify(classifier.Input{
		URL:         pageURL,
		Title:       title,
		Description: description,
		Metadata:    classifierMetadata(meta),
	})

	current := strings.TrimSpace(req.CurrentCategory)
	return &model.Suggestion{
		Category:  res.Category,
		Score:     res.Score,
		AutoApply: current == "" || current == classifier.Uncategorized,
		Metadata:  meta,
	}, nil
}

// Create saves a new bookmark for userID. An explicit category in req is
// never overridden. Metadata problems only make the suggestion weaker.
func (s *IngestService) Create(ctx context.Context, userID string, req model.BookmarkRequest) (*model.Bookmark, error) {
	pageURL, err := NormalizeBookmarkURL(req.URL)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(req.Category)
	if category != "" {
		if category, err = CleanCategoryName(category); err != nil {
			return nil, err
		}
	}

	sug, err := s.Suggest(ctx, model.SuggestRequest{
		URL:             pageURL,
		Title:           req.Title,
		Description:     req.Description,
		CurrentCategory: category,
	})
	if err != nil {
		return nil, err
	}
	if sug.AutoApply {
		category = sug.Category
	}
	if category == "" {
		category = classifier.Uncategorized
	}

	meta := sug.Metadata
	title := firstNonEmpty(req.Title, meta.Title)
	if title == "" {
		title = metadata.TitleFromURL(pageURL)
	}

	b := &model.Bookmark{
		ID:          s.newID(),
		UserID:      userID,
		URL:         pageURL,
		Title:       title,
		Description: firstNonEmpty(req.Description, meta.Description),
		Category:    category,
		Favicon:     firstNonEmpty(meta.Favicon, metadata.FaviconURL(pageURL)),
		Image:       meta.Image,
		SiteName:    meta.SiteName,
		PageType:    meta.Type,
		Keywords:    meta.Keywords,
	}
	b.SearchText = SearchText(b)

	if err := s.categories.EnsureExists(ctx, userID, category); err != nil {
		s.logger.Warn().Err(err).Str("category", category).Msg("ensure category failed")
	}

	if err := s.bookmarks.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("bookmark_id", b.ID).
		Str("category", category).
		Bool("auto_applied", sug.AutoApply).
		Int("score", sug.Score).
		Msg("bookmark created")
	return b, nil
}

// SearchText builds the persisted search corpus of b.
func SearchText(b *model.Bookmark) string {
	return classifier.BuildSearchCorpus(classifier.Input{
		URL:         b.URL,
		Title:       b.Title,
		Description: b.Description,
		Metadata: &classifier.Metadata{
			SiteName: b.SiteName,
			Type:     b.PageType,
			Keywords: b.Keywords,
		},
	})
}

func classifierMetadata(m model.PageMetadata) *classifier.Metadata {
	return &classifier.Metadata{SiteName: m.SiteName, Type: m.Type, Keywords: m.Keywords}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
