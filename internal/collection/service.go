package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Service is the sole owner of persisted user/movie state. Every mutation
// runs as a single transaction: the duplicate check and the insert are never
// visible to other writers as separate steps.
type Service struct {
	db     *sql.DB
	hub    Broadcaster
	logger zerolog.Logger
}

// NewService creates a new collection service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "collection").Logger(),
	}
}

// SetBroadcaster wires the WebSocket hub for change events.
func (s *Service) SetBroadcaster(hub Broadcaster) {
	s.hub = hub
}

func (s *Service) broadcast(eventType string, payload any) {
	if s.hub != nil {
		s.hub.Broadcast(eventType, payload)
	}
}

// ListUsers returns all users ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// GetUserWithMovies retrieves a user with their movies eagerly loaded.
func (s *Service) GetUserWithMovies(ctx context.Context, userID int64) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE id = ?`, userID).
		Scan(&user.ID, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, director, year, rating, imdb_id, created_at, updated_at
		 FROM movies WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	user.Movies = []*Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		user.Movies = append(user.Movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	return user, nil
}

// CreateUser adds a new user. Names are case-insensitively unique.
func (s *Service) CreateUser(ctx context.Context, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidUser
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE LOWER(name) = LOWER(?)`, name).Scan(&existingID)
	if err == nil {
		return nil, ErrDuplicateUser
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate user: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	user := &User{ID: id, Name: name}
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE id = ?`, id).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info().Int64("userId", id).Str("name", name).Msg("user created")
	s.broadcast("userAdded", user)

	return user, nil
}

// DeleteUser removes a user and, via the schema's cascade, all their movies.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM users WHERE id = ?`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info().Int64("userId", userID).Str("name", name).Msg("user deleted")
	s.broadcast("userDeleted", map[string]any{"id": userID, "name": name})

	return nil
}

// CreateMovie inserts a movie into a user's collection. A movie conflicts
// with an existing one for the same user when the IMDb ID matches (when
// provided) or the name matches case-insensitively. The scope is per-user
// only: two different users may own the same title.
func (s *Service) CreateMovie(ctx context.Context, userID int64, input CreateMovieInput) (*Movie, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Director = strings.TrimSpace(input.Director)
	if input.Name == "" || input.Director == "" {
		return nil, ErrInvalidMovie
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	var dupID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM movies
		 WHERE user_id = ?
		   AND (LOWER(name) = LOWER(?) OR (? != '' AND imdb_id = ?))`,
		userID, input.Name, input.ImdbID, input.ImdbID).Scan(&dupID)
	if err == nil {
		return nil, ErrDuplicateMovie
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate movie: %w", err)
	}

	var imdbID sql.NullString
	if input.ImdbID != "" {
		imdbID = sql.NullString{String: input.ImdbID, Valid: true}
	}
	var year sql.NullInt64
	if input.Year != nil {
		year = sql.NullInt64{Int64: int64(*input.Year), Valid: true}
	}
	var rating sql.NullFloat64
	if input.Rating != nil {
		rating = sql.NullFloat64{Float64: *input.Rating, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO movies (user_id, name, director, year, rating, imdb_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, input.Name, input.Director, year, rating, imdbID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get movie id: %w", err)
	}

	movie, err := getMovieTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info().
		Int64("userId", userID).
		Int64("movieId", id).
		Str("name", movie.Name).
		Msg("movie added")
	s.broadcast("movieAdded", movie)

	return movie, nil
}

// UpdateMovie applies a partial update. Provided fields are validated
// independently; any validation failure rejects the whole call and nothing
// is written. Empty strings behave like unset fields.
func (s *Service) UpdateMovie(ctx context.Context, movieID int64, input UpdateMovieInput) (*Movie, error) {
	setClauses := []string{}
	args := []any{}

	if v := strValue(input.Name); v != "" {
		setClauses = append(setClauses, "name = ?")
		args = append(args, strings.TrimSpace(v))
	}
	if v := strValue(input.Director); v != "" {
		setClauses = append(setClauses, "director = ?")
		args = append(args, strings.TrimSpace(v))
	}
	if v := strValue(input.Year); v != "" {
		year, err := ParseYear(v)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, "year = ?")
		args = append(args, *year)
	}
	if v := strValue(input.Rating); v != "" {
		rating, err := ParseRating(v)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, "rating = ?")
		args = append(args, *rating)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM movies WHERE id = ?`, movieID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to check movie: %w", err)
	}

	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = CURRENT_TIMESTAMP")
		query := "UPDATE movies SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
		args = append(args, movieID)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update movie: %w", err)
		}
	}

	movie, err := getMovieTx(ctx, tx, movieID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info().Int64("movieId", movieID).Str("name", movie.Name).Msg("movie updated")
	s.broadcast("movieUpdated", movie)

	return movie, nil
}

// DeleteMovie removes a single movie.
func (s *Service) DeleteMovie(ctx context.Context, movieID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	var userID int64
	err = tx.QueryRowContext(ctx,
		`SELECT name, user_id FROM movies WHERE id = ?`, movieID).Scan(&name, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("failed to get movie: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, movieID); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Info().Int64("movieId", movieID).Str("name", name).Msg("movie deleted")
	s.broadcast("movieDeleted", map[string]any{"id": movieID, "userId": userID, "name": name})

	return nil
}

// CountUsers returns the total number of users.
func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountMovies returns the total number of movies across all users.
func (s *Service) CountMovies(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count)
	return count, err
}

// ParseYear validates a user-supplied year string.
func ParseYear(raw string) (*int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, &InvalidFieldError{Field: "year", Reason: "must be a whole number"}
	}
	return &year, nil
}

// ParseRating validates a user-supplied rating string. Manual edits must
// stay in [1.0, 10.0]; imported upstream ratings bypass this and are
// coerced to NULL instead (see the importer).
func ParseRating(raw string) (*float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, &InvalidFieldError{Field: "rating", Reason: "must be a number"}
	}
	if rating < 1.0 || rating > 10.0 {
		return nil, &InvalidFieldError{Field: "rating", Reason: "must be between 1.0 and 10.0"}
	}
	return &rating, nil
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	movie := &Movie{}
	var year sql.NullInt64
	var rating sql.NullFloat64
	var imdbID sql.NullString

	err := row.Scan(&movie.ID, &movie.UserID, &movie.Name, &movie.Director,
		&year, &rating, &imdbID, &movie.CreatedAt, &movie.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}

	if year.Valid {
		y := int(year.Int64)
		movie.Year = &y
	}
	if rating.Valid {
		r := rating.Float64
		movie.Rating = &r
	}
	if imdbID.Valid {
		movie.ImdbID = &imdbID.String
	}

	return movie, nil
}

func getMovieTx(ctx context.Context, tx *sql.Tx, id int64) (*Movie, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, director, year, rating, imdb_id, created_at, updated_at
		 FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return movie, nil
}
