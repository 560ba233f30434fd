// Package importer reconciles externally looked-up titles into a user's
// collection. Lookups return raw string fields; this package decides how
// leniently to coerce them before handing records to the collection store.
package importer

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/moviweb/moviweb/internal/collection"
	"github.com/moviweb/moviweb/internal/metadata/omdb"
)

// LookupClient is the external metadata source the importer pulls from.
type LookupClient interface {
	Name() string
	IsConfigured() bool
	Search(ctx context.Context, title string) ([]omdb.SearchResult, error)
	GetByIMDbID(ctx context.Context, imdbID string) (*omdb.MovieDetail, error)
}

// Service coordinates lookup, normalization and storage for imports.
type Service struct {
	lookup LookupClient
	store  *collection.Service
	hub    collection.Broadcaster
	titler cases.Caser
	logger zerolog.Logger
}

// NewService creates a new importer service.
func NewService(lookup LookupClient, store *collection.Service, logger zerolog.Logger) *Service {
	return &Service{
		lookup: lookup,
		store:  store,
		titler: cases.Title(language.English),
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// SetBroadcaster wires the WebSocket hub for batch completion events.
func (s *Service) SetBroadcaster(hub collection.Broadcaster) {
	s.hub = hub
}

// SearchByTitle returns candidate titles for user confirmation. Results are
// never written to the store until the caller imports a selection.
func (s *Service) SearchByTitle(ctx context.Context, title string) ([]omdb.SearchResult, error) {
	return s.lookup.Search(ctx, title)
}

// GetPlot fetches the plot summary for a single title.
func (s *Service) GetPlot(ctx context.Context, imdbID string) (string, error) {
	detail, err := s.lookup.GetByIMDbID(ctx, imdbID)
	if err != nil {
		return "", err
	}
	return detail.Plot, nil
}

// ImportSelections fetches each confirmed identifier and adds it to the
// user's collection. Items are processed independently: a duplicate or a
// lookup failure marks that item and moves on. Only a missing user aborts
// the whole batch.
func (s *Service) ImportSelections(ctx context.Context, userID int64, imdbIDs []string) (*Report, error) {
	if _, err := s.store.GetUserWithMovies(ctx, userID); err != nil {
		return nil, err
	}

	report := &Report{
		BatchID: uuid.NewString(),
		UserID:  userID,
		Items:   make([]Item, 0, len(imdbIDs)),
	}

	for _, imdbID := range imdbIDs {
		imdbID = strings.TrimSpace(imdbID)
		if imdbID == "" {
			continue
		}
		item := s.importOne(ctx, userID, imdbID)
		report.Items = append(report.Items, item)

		switch item.Status {
		case StatusAdded:
			report.Added++
		case StatusDuplicate:
			report.Duplicates++
		default:
			report.Failed++
		}
	}

	s.logger.Info().
		Str("batchId", report.BatchID).
		Int64("userId", userID).
		Int("added", report.Added).
		Int("duplicates", report.Duplicates).
		Int("failed", report.Failed).
		Msg("Import batch completed")

	if s.hub != nil {
		s.hub.Broadcast("importCompleted", report)
	}

	return report, nil
}

func (s *Service) importOne(ctx context.Context, userID int64, imdbID string) Item {
	detail, err := s.lookup.GetByIMDbID(ctx, imdbID)
	if err != nil {
		if errors.Is(err, omdb.ErrNotFound) {
			return Item{ImdbID: imdbID, Status: StatusNotFound, Detail: "no title with this id"}
		}
		s.logger.Warn().Err(err).Str("imdbId", imdbID).Msg("Lookup failed during import")
		return Item{ImdbID: imdbID, Status: StatusError, Detail: err.Error()}
	}

	input := s.toMovieInput(detail)
	_, err = s.store.CreateMovie(ctx, userID, input)
	if err != nil {
		if errors.Is(err, collection.ErrDuplicateMovie) {
			return Item{ImdbID: imdbID, Title: input.Name, Status: StatusDuplicate, Detail: "already in collection"}
		}
		s.logger.Warn().Err(err).Str("imdbId", imdbID).Msg("Store rejected imported title")
		return Item{ImdbID: imdbID, Title: input.Name, Status: StatusError, Detail: err.Error()}
	}

	return Item{ImdbID: imdbID, Title: input.Name, Status: StatusAdded}
}

// toMovieInput normalizes a looked-up record for storage. External fields
// are coerced leniently: unparseable year or rating becomes absent rather
// than failing the item.
func (s *Service) toMovieInput(detail *omdb.MovieDetail) collection.CreateMovieInput {
	input := collection.CreateMovieInput{
		Name:     s.titler.String(strings.TrimSpace(detail.Title)),
		Director: strings.TrimSpace(detail.Director),
		ImdbID:   detail.ImdbID,
	}
	if input.Director == "" {
		input.Director = "Unknown"
	}

	if year := parseLeadingYear(detail.Year); year != nil {
		input.Year = year
	}
	if detail.Rating != "" {
		if rating, err := strconv.ParseFloat(detail.Rating, 64); err == nil {
			input.Rating = &rating
		}
	}

	return input
}

// parseLeadingYear extracts the first year from strings like "1972" or the
// series form "2008–2013". Anything unparseable yields nil.
func parseLeadingYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if len(raw) < 4 {
		return nil
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return nil
	}
	return &year
}
