package mock

import (
	"context"
	"strings"

	"github.com/moviweb/moviweb/internal/metadata/omdb"
)

// OMDBClient is a canned in-memory stand-in for the OMDb client, used in
// tests and developer mode. Unknown identifiers report ErrNotFound just
// like the real service.
type OMDBClient struct{}

// NewOMDBClient creates a new mock OMDb client.
func NewOMDBClient() *OMDBClient {
	return &OMDBClient{}
}

func (c *OMDBClient) Name() string {
	return "omdb-mock"
}

func (c *OMDBClient) IsConfigured() bool {
	return true
}

// Search matches canned titles by case-insensitive substring.
func (c *OMDBClient) Search(ctx context.Context, title string) ([]omdb.SearchResult, error) {
	if title == "" {
		return nil, omdb.ErrNotFound
	}

	needle := strings.ToLower(title)
	var results []omdb.SearchResult
	for _, id := range mockOrder {
		detail := mockDetails[id]
		if strings.Contains(strings.ToLower(detail.Title), needle) {
			results = append(results, omdb.SearchResult{
				Title:  detail.Title,
				Year:   detail.Year,
				ImdbID: detail.ImdbID,
			})
		}
	}

	if len(results) == 0 {
		return nil, omdb.ErrNotFound
	}
	return results, nil
}

// GetByIMDbID returns the canned detail for a known IMDb ID.
func (c *OMDBClient) GetByIMDbID(ctx context.Context, imdbID string) (*omdb.MovieDetail, error) {
	detail, ok := mockDetails[imdbID]
	if !ok {
		return nil, omdb.ErrNotFound
	}
	copied := detail
	return &copied, nil
}

// mockOrder keeps search results deterministic.
var mockOrder = []string{
	"tt0068646",
	"tt0071562",
	"tt0133093",
	"tt0110912",
	"tt0111161",
	"tt0468569",
	"tt1375666",
	"tt0816692",
}

var mockDetails = map[string]omdb.MovieDetail{
	"tt0068646": {
		Title:    "The Godfather",
		Director: "Francis Ford Coppola",
		Year:     "1972",
		Rating:   "9.2",
		ImdbID:   "tt0068646",
		Plot:     "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
	},
	"tt0071562": {
		Title:    "The Godfather Part II",
		Director: "Francis Ford Coppola",
		Year:     "1974",
		Rating:   "9.0",
		ImdbID:   "tt0071562",
		Plot:     "The early life and career of Vito Corleone in 1920s New York City is portrayed.",
	},
	"tt0133093": {
		Title:    "The Matrix",
		Director: "Lana Wachowski, Lilly Wachowski",
		Year:     "1999",
		Rating:   "8.7",
		ImdbID:   "tt0133093",
		Plot:     "A computer hacker learns about the true nature of reality.",
	},
	"tt0110912": {
		Title:    "Pulp Fiction",
		Director: "Quentin Tarantino",
		Year:     "1994",
		Rating:   "8.9",
		ImdbID:   "tt0110912",
		Plot:     "The lives of two mob hitmen, a boxer and a pair of diner bandits intertwine.",
	},
	"tt0111161": {
		Title:    "The Shawshank Redemption",
		Director: "Frank Darabont",
		Year:     "1994",
		Rating:   "9.3",
		ImdbID:   "tt0111161",
		Plot:     "Two imprisoned men bond over a number of years.",
	},
	"tt0468569": {
		Title:    "The Dark Knight",
		Director: "Christopher Nolan",
		Year:     "2008",
		Rating:   "9.0",
		ImdbID:   "tt0468569",
		Plot:     "Batman must accept one of the greatest psychological and physical tests.",
	},
	"tt1375666": {
		Title:    "Inception",
		Director: "Christopher Nolan",
		Year:     "2010",
		Rating:   "8.8",
		ImdbID:   "tt1375666",
		Plot:     "A thief who steals corporate secrets through dream-sharing technology.",
	},
	"tt0816692": {
		Title:    "Interstellar",
		Director: "Christopher Nolan",
		Year:     "2014",
		Rating:   "8.7",
		ImdbID:   "tt0816692",
		Plot:     "A team of explorers travel through a wormhole in space.",
	},
}
