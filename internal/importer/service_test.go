package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/moviweb/moviweb/internal/collection"
	"github.com/moviweb/moviweb/internal/metadata/mock"
	"github.com/moviweb/moviweb/internal/metadata/omdb"
	"github.com/moviweb/moviweb/internal/testutil"
)

func newTestImporter(t *testing.T) (*Service, *collection.Service, func()) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	store := collection.NewService(tdb.Conn, tdb.Logger)
	svc := NewService(mock.NewOMDBClient(), store, tdb.Logger)
	return svc, store, tdb.Close
}

func TestSearchByTitle(t *testing.T) {
	svc, _, cleanup := newTestImporter(t)
	defer cleanup()

	results, err := svc.SearchByTitle(context.Background(), "godfather")
	if err != nil {
		t.Fatalf("SearchByTitle() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SearchByTitle() returned %d results, want 2", len(results))
	}
	if results[0].ImdbID != "tt0068646" {
		t.Errorf("results[0].ImdbID = %q, want tt0068646", results[0].ImdbID)
	}
}

func TestGetPlot(t *testing.T) {
	svc, _, cleanup := newTestImporter(t)
	defer cleanup()

	plot, err := svc.GetPlot(context.Background(), "tt0068646")
	if err != nil {
		t.Fatalf("GetPlot() error = %v", err)
	}
	if plot == "" {
		t.Error("GetPlot() returned empty plot")
	}

	if _, err := svc.GetPlot(context.Background(), "tt9999999"); !errors.Is(err, omdb.ErrNotFound) {
		t.Errorf("GetPlot(unknown) error = %v, want %v", err, omdb.ErrNotFound)
	}
}

func TestImportSelections(t *testing.T) {
	svc, store, cleanup := newTestImporter(t)
	defer cleanup()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	report, err := svc.ImportSelections(ctx, user.ID, []string{"tt0068646", "tt0110912"})
	if err != nil {
		t.Fatalf("ImportSelections() error = %v", err)
	}

	if report.BatchID == "" {
		t.Error("report.BatchID is empty")
	}
	if report.Added != 2 {
		t.Errorf("report.Added = %d, want 2", report.Added)
	}
	for _, item := range report.Items {
		if item.Status != StatusAdded {
			t.Errorf("item %s status = %q, want %q", item.ImdbID, item.Status, StatusAdded)
		}
	}

	got, err := store.GetUserWithMovies(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserWithMovies() error = %v", err)
	}
	if len(got.Movies) != 2 {
		t.Fatalf("user has %d movies, want 2", len(got.Movies))
	}

	var godfather *collection.Movie
	for _, m := range got.Movies {
		if m.ImdbID != nil && *m.ImdbID == "tt0068646" {
			godfather = m
		}
	}
	if godfather == nil {
		t.Fatal("imported movie tt0068646 not found in collection")
	}
	if godfather.Name != "The Godfather" {
		t.Errorf("Name = %q, want %q", godfather.Name, "The Godfather")
	}
	if godfather.Director != "Francis Ford Coppola" {
		t.Errorf("Director = %q, want %q", godfather.Director, "Francis Ford Coppola")
	}
	if godfather.Year == nil || *godfather.Year != 1972 {
		t.Errorf("Year = %v, want 1972", godfather.Year)
	}
	if godfather.Rating == nil || *godfather.Rating != 9.2 {
		t.Errorf("Rating = %v, want 9.2", godfather.Rating)
	}
}

func TestImportSelections_DuplicateWithinBatch(t *testing.T) {
	svc, store, cleanup := newTestImporter(t)
	defer cleanup()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	report, err := svc.ImportSelections(ctx, user.ID, []string{"tt0068646", "tt0068646"})
	if err != nil {
		t.Fatalf("ImportSelections() error = %v", err)
	}

	if len(report.Items) != 2 {
		t.Fatalf("report has %d items, want 2", len(report.Items))
	}
	if report.Items[0].Status != StatusAdded {
		t.Errorf("items[0].Status = %q, want %q", report.Items[0].Status, StatusAdded)
	}
	if report.Items[1].Status != StatusDuplicate {
		t.Errorf("items[1].Status = %q, want %q", report.Items[1].Status, StatusDuplicate)
	}
	if report.Added != 1 || report.Duplicates != 1 {
		t.Errorf("Added = %d, Duplicates = %d, want 1 and 1", report.Added, report.Duplicates)
	}

	count, err := store.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountMovies() = %d, want exactly 1", count)
	}
}

func TestImportSelections_MixedOutcomes(t *testing.T) {
	svc, store, cleanup := newTestImporter(t)
	defer cleanup()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	// An unknown id in the middle must not stop the items after it.
	report, err := svc.ImportSelections(ctx, user.ID, []string{"tt0068646", "tt9999999", "tt0110912"})
	if err != nil {
		t.Fatalf("ImportSelections() error = %v", err)
	}

	want := []ItemStatus{StatusAdded, StatusNotFound, StatusAdded}
	if len(report.Items) != len(want) {
		t.Fatalf("report has %d items, want %d", len(report.Items), len(want))
	}
	for i, status := range want {
		if report.Items[i].Status != status {
			t.Errorf("items[%d].Status = %q, want %q", i, report.Items[i].Status, status)
		}
	}
	if report.Added != 2 || report.Failed != 1 {
		t.Errorf("Added = %d, Failed = %d, want 2 and 1", report.Added, report.Failed)
	}
}

func TestImportSelections_UserNotFound(t *testing.T) {
	svc, _, cleanup := newTestImporter(t)
	defer cleanup()

	_, err := svc.ImportSelections(context.Background(), 999, []string{"tt0068646"})
	if !errors.Is(err, collection.ErrUserNotFound) {
		t.Errorf("ImportSelections() error = %v, want %v", err, collection.ErrUserNotFound)
	}
}

func TestImportSelections_AlreadyInCollection(t *testing.T) {
	svc, store, cleanup := newTestImporter(t)
	defer cleanup()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := store.CreateMovie(ctx, user.ID, collection.CreateMovieInput{
		Name:     "The Godfather",
		Director: "Francis Ford Coppola",
		ImdbID:   "tt0068646",
	}); err != nil {
		t.Fatalf("CreateMovie() error = %v", err)
	}

	report, err := svc.ImportSelections(ctx, user.ID, []string{"tt0068646"})
	if err != nil {
		t.Fatalf("ImportSelections() error = %v", err)
	}
	if report.Items[0].Status != StatusDuplicate {
		t.Errorf("items[0].Status = %q, want %q", report.Items[0].Status, StatusDuplicate)
	}
}

func TestToMovieInput_Normalization(t *testing.T) {
	svc, _, cleanup := newTestImporter(t)
	defer cleanup()

	tests := []struct {
		name   string
		detail omdb.MovieDetail
		want   collection.CreateMovieInput
	}{
		{
			name: "title cased and trimmed",
			detail: omdb.MovieDetail{
				Title:    "  the godfather ",
				Director: "Francis Ford Coppola",
				Year:     "1972",
				Rating:   "9.2",
				ImdbID:   "tt0068646",
			},
			want: collection.CreateMovieInput{
				Name:     "The Godfather",
				Director: "Francis Ford Coppola",
				Year:     testutil.IntPtr(1972),
				Rating:   testutil.Float64Ptr(9.2),
				ImdbID:   "tt0068646",
			},
		},
		{
			name: "missing fields coerced to absent",
			detail: omdb.MovieDetail{
				Title:  "Mystery Film",
				ImdbID: "tt0000001",
			},
			want: collection.CreateMovieInput{
				Name:     "Mystery Film",
				Director: "Unknown",
				ImdbID:   "tt0000001",
			},
		},
		{
			name: "unparseable year and rating dropped",
			detail: omdb.MovieDetail{
				Title:    "Odd Record",
				Director: "Someone",
				Year:     "unknown",
				Rating:   "not rated",
				ImdbID:   "tt0000002",
			},
			want: collection.CreateMovieInput{
				Name:     "Odd Record",
				Director: "Someone",
				ImdbID:   "tt0000002",
			},
		},
		{
			name: "series year range uses first year",
			detail: omdb.MovieDetail{
				Title:    "Long Running Show",
				Director: "Someone",
				Year:     "2008–2013",
				ImdbID:   "tt0000003",
			},
			want: collection.CreateMovieInput{
				Name:     "Long Running Show",
				Director: "Someone",
				Year:     testutil.IntPtr(2008),
				ImdbID:   "tt0000003",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.toMovieInput(&tt.detail)
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if got.Director != tt.want.Director {
				t.Errorf("Director = %q, want %q", got.Director, tt.want.Director)
			}
			if !intPtrEqual(got.Year, tt.want.Year) {
				t.Errorf("Year = %v, want %v", got.Year, tt.want.Year)
			}
			if !float64PtrEqual(got.Rating, tt.want.Rating) {
				t.Errorf("Rating = %v, want %v", got.Rating, tt.want.Rating)
			}
			if got.ImdbID != tt.want.ImdbID {
				t.Errorf("ImdbID = %q, want %q", got.ImdbID, tt.want.ImdbID)
			}
		})
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func float64PtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
