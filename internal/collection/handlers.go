package collection

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for user and movie operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new collection handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers collection routes on the API group.
func (h *Handlers) RegisterRoutes(api *echo.Group) {
	users := api.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.DELETE("/:id", h.DeleteUser)
	users.POST("/:id/movies", h.CreateMovie)

	movies := api.Group("/movies")
	movies.PUT("/:id", h.UpdateMovie)
	movies.DELETE("/:id", h.DeleteMovie)
}

// ListUsers returns all users.
// GET /api/v1/users
func (h *Handlers) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns a user with their movie collection.
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	user, err := h.service.GetUserWithMovies(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser adds a new user.
// POST /api/v1/users
func (h *Handlers) CreateUser(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, err := h.service.CreateUser(c.Request().Context(), body.Name)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// DeleteUser removes a user and their movies.
// DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := h.service.DeleteUser(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateMovie adds a movie to a user's collection by hand. Year and rating
// are optional but validated strictly when provided, unlike the import path.
// POST /api/v1/users/:id/movies
func (h *Handlers) CreateMovie(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var body struct {
		Name     string `json:"name"`
		Director string `json:"director"`
		Year     string `json:"year"`
		Rating   string `json:"rating"`
		ImdbID   string `json:"imdbId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	input := CreateMovieInput{
		Name:     body.Name,
		Director: body.Director,
		ImdbID:   body.ImdbID,
	}
	if body.Year != "" {
		year, err := ParseYear(body.Year)
		if err != nil {
			return errorResponse(c, err)
		}
		input.Year = year
	}
	if body.Rating != "" {
		rating, err := ParseRating(body.Rating)
		if err != nil {
			return errorResponse(c, err)
		}
		input.Rating = rating
	}

	movie, err := h.service.CreateMovie(c.Request().Context(), userID, input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, movie)
}

// UpdateMovie applies a partial update to a movie.
// PUT /api/v1/movies/:id
func (h *Handlers) UpdateMovie(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var input UpdateMovieInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	movie, err := h.service.UpdateMovie(c.Request().Context(), id, input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// DeleteMovie removes a movie from its owner's collection.
// DELETE /api/v1/movies/:id
func (h *Handlers) DeleteMovie(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := h.service.DeleteMovie(c.Request().Context(), id); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// errorResponse maps a service error to an HTTP response. The transport
// layer always branches on the discriminated error; it never assumes success.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrDuplicateUser), errors.Is(err, ErrDuplicateMovie):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidUser), errors.Is(err, ErrInvalidMovie):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if fieldErr, ok := IsInvalidField(err); ok {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fieldErr.Error(),
			"field": fieldErr.Field,
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
