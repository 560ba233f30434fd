package collection

import "time"

// User represents a collection owner.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Movies    []*Movie  `json:"movies,omitempty"`
}

// Movie represents one entry in a user's collection. Year and Rating are
// nullable: imported records with absent or unparseable upstream values
// store NULL rather than a zero.
type Movie struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Director  string    `json:"director"`
	Year      *int      `json:"year"`
	Rating    *float64  `json:"rating"`
	ImdbID    *string   `json:"imdbId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateMovieInput contains already-typed fields for inserting a movie.
// The import path fills Year/Rating with whatever survived lenient parsing;
// manual entry goes through ParseYear/ParseRating first.
type CreateMovieInput struct {
	Name     string
	Director string
	Year     *int
	Rating   *float64
	ImdbID   string
}

// UpdateMovieInput carries raw form fields for a partial update. Nil or
// empty means "leave unchanged"; provided values are validated strictly.
type UpdateMovieInput struct {
	Name     *string `json:"name"`
	Director *string `json:"director"`
	Year     *string `json:"year"`
	Rating   *string `json:"rating"`
}

// Broadcaster pushes collection change events to connected UI clients.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}
