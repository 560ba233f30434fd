package importer

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moviweb/moviweb/internal/collection"
	"github.com/moviweb/moviweb/internal/metadata/omdb"
)

// Handlers provides HTTP handlers for search and import operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new importer handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers importer routes on the API group.
func (h *Handlers) RegisterRoutes(api *echo.Group) {
	api.GET("/search", h.Search)
	api.GET("/plot/:imdbId", h.GetPlot)
	api.POST("/users/:id/import", h.Import)
}

// Search looks up candidate titles by name.
// GET /api/v1/search?title=...
func (h *Handlers) Search(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title query parameter is required"})
	}

	results, err := h.service.SearchByTitle(c.Request().Context(), title)
	if err != nil {
		if errors.Is(err, omdb.ErrNotFound) {
			return c.JSON(http.StatusOK, []omdb.SearchResult{})
		}
		return lookupErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

// GetPlot returns the plot summary for a title.
// GET /api/v1/plot/:imdbId
func (h *Handlers) GetPlot(c echo.Context) error {
	imdbID := c.Param("imdbId")

	plot, err := h.service.GetPlot(c.Request().Context(), imdbID)
	if err != nil {
		return lookupErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"imdbId": imdbID, "plot": plot})
}

// Import adds the confirmed selections to a user's collection.
// POST /api/v1/users/:id/import
func (h *Handlers) Import(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var body struct {
		ImdbIDs []string `json:"imdbIds"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body.ImdbIDs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "imdbIds must not be empty"})
	}

	report, err := h.service.ImportSelections(c.Request().Context(), userID, body.ImdbIDs)
	if err != nil {
		if errors.Is(err, collection.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// lookupErrorResponse maps metadata lookup errors to HTTP responses. An
// unconfigured client is a service problem, not a client mistake.
func lookupErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, omdb.ErrAPIKeyMissing):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "metadata lookup is not configured"})
	case errors.Is(err, omdb.ErrTimeout), errors.Is(err, omdb.ErrConnection):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	case errors.Is(err, omdb.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
