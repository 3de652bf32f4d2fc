package mailbox

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// Handler serves the mailbox over HTTP.
type Handler struct {
	box *Mailbox
	log zerolog.Logger
}

// NewHandler creates a new mailbox handler.
func NewHandler(box *Mailbox, log zerolog.Logger) *Handler {
	return &Handler{box: box, log: log}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/receive-question", h.Receive)
	e.GET("/receive-question", h.Latest)
}

// Receive stores a pushed question payload.
func (h *Handler) Receive(c echo.Context) error {
	var payload domain.QuestionPayload
	if err := c.Bind(&payload); err != nil {
		h.log.Warn().Err(err).Msg("rejected malformed mailbox payload")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to store"})
	}

	h.box.Put(&payload)
	h.log.Debug().
		Str("identity", payload.Identity().String()).
		Bool("isComplete", payload.IsComplete).
		Msg("stored question payload")

	return c.JSON(http.StatusOK, map[string]string{"message": "stored"})
}

// Latest returns the latest stored payload, or an empty object when none
// has arrived yet.
func (h *Handler) Latest(c echo.Context) error {
	if p := h.box.Get(); p != nil {
		return c.JSON(http.StatusOK, p)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{})
}
