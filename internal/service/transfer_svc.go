package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
	"github.com/devilqueenlove/BookMyWebs/internal/model"
	"github.com/devilqueenlove/BookMyWebs/internal/repository"
	"github.com/devilqueenlove/BookMyWebs/pkg/bookmarkfile"
)

// exportPageSize is the listing page used while collecting an export.
const exportPageSize = 1000

// TransferService imports and exports bookmark files.
type TransferService struct {
	classifier *classifier.Classifier
	bookmarks  BookmarkStore
	categories *CategoryService
	logger     zerolog.Logger
	newID      func() string
	now        func() time.Time
}

func NewTransferService(c *classifier.Classifier, bookmarks BookmarkStore, categories *CategoryService, logger zerolog.Logger) *TransferService {
	return &TransferService{
		classifier: c,
		bookmarks:  bookmarks,
		categories: categories,
		logger:     logger.With().Str("component", "transfer").Logger(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Export is an encoded bookmark file ready to be served.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
	Count       int
}

// Export encodes all of the user's bookmarks in format.
func (s *TransferService) Export(ctx context.Context, userID, format string) (*Export, error) {
	f, err := bookmarkfile.ParseFormat(format)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	var records []bookmarkfile.Record
	for offset := 0; ; offset += exportPageSize {
		page, err := s.bookmarks.List(ctx, userID, model.BookmarkFilter{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			records = append(records, bookmarkfile.Record{
				Title:       b.Title,
				URL:         b.URL,
				Category:    b.Category,
				Description: b.Description,
				AddedAt:     b.CreatedAt,
			})
		}
		if len(page) < exportPageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := bookmarkfile.Encode(&buf, f, records, s.now()); err != nil {
		return nil, err
	}
	return &Export{
		Data:        buf.Bytes(),
		ContentType: f.ContentType(),
		Filename:    f.Filename(),
		Count:       len(records),
	}, nil
}

// Import adds the bookmarks in r to the user's collection. Entries already
// saved are counted as duplicates; invalid URLs are counted and skipped.
// With autoCategorize, entries without a category are classified from
// their URL, title and description.
func (s *TransferService) Import(ctx context.Context, userID, format string, r io.Reader, autoCategorize bool) (*model.ImportResult, error) {
	f, err := bookmarkfile.ParseFormat(format)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	records, err := bookmarkfile.Parse(r, f)
	if err != nil {
		s.logger.Debug().Err(err).Str("format", string(f)).Msg("import parse failed")
		return nil, ErrInvalidFile
	}

	res := &model.ImportResult{Parsed: len(records)}
	bookmarks := make([]*model.Bookmark, 0, len(records))
	var names []string

	for _, rec := range records {
		pageURL, err := NormalizeBookmarkURL(rec.URL)
		if err != nil {
			res.Invalid++
			continue
		}

		category := classifier.Uncategorized
		if rec.Category != "" {
			if c, err := CleanCategoryName(rec.Category); err == nil {
				category = c
			}
		}

		title := rec.Title
		if title == "" {
			title = metadata.TitleFromURL(pageURL)
		}

		if autoCategorize && category == classifier.Uncategorized {
			if c := s.classifier.Categorize(pageURL, title, rec.Description, nil); c != classifier.Uncategorized {
				category = c
				res.Categorized++
			}
		}

		b := &model.Bookmark{
			ID:          s.newID(),
			UserID:      userID,
			URL:         pageURL,
			Title:       title,
			Description: rec.Description,
			Category:    category,
			Favicon:     metadata.FaviconURL(pageURL),
			CreatedAt:   rec.AddedAt,
		}
		b.SearchText = SearchText(b)
		bookmarks = append(bookmarks, b)
		names = append(names, category)
	}

	if err := s.categories.EnsureExists(ctx, userID, names...); err != nil {
		return nil, err
	}

	for _, b := range bookmarks {
		err := s.bookmarks.Create(ctx, b)
		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, repository.ErrDuplicate):
			res.Duplicates++
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Failed++
			s.logger.Warn().Err(err).Msg("import entry failed")
		}
	}

	s.logger.Info().
		Str("format", string(f)).
		Int("parsed", res.Parsed).
		Int("imported", res.Imported).
		Int("duplicates", res.Duplicates).
		Int("invalid", res.Invalid).
		Msg("import complete")
	return res, nil
}
