package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ticketsense/ai/observability/logging"
)

const (
	defaultContextTag = "general"
	genericQueryMsg   = "Invalid or too generic query. Please provide a more specific context."
)

type TicketService struct {
	Backend TicketBackend
}

type SummarizeRequest struct {
	Text string `json:"text"`
}

type SummarizeResponse struct {
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

type SearchRequest struct {
	Text       string `json:"text"`
	ContextTag string `json:"contextTag"`
}

// Summarize handles POST /summarize.
func (s *TicketService) Summarize(c echo.Context) error {
	var req SummarizeRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Debug("invalid request body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	ctx := c.Request().Context()
	res, err := s.Backend.SummarizeAndStore(ctx, req.Text)
	if err != nil {
		logging.FromContext(ctx).Error("failed to summarize ticket", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to summarize ticket").SetInternal(err)
	}

	return c.JSON(http.StatusOK, SummarizeResponse{
		Summary:   res.Summary,
		Sentiment: string(res.Sentiment),
	})
}

// Search handles POST /summarize/search and replies with a JSON array of ticket texts.
func (s *TicketService) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Debug("invalid request body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	tag := strings.TrimSpace(req.ContextTag)
	if tag == "" {
		tag = defaultContextTag
	}
	if strings.TrimSpace(req.Text) == "" || strings.EqualFold(tag, defaultContextTag) {
		return echo.NewHTTPError(http.StatusBadRequest, genericQueryMsg)
	}

	ctx := c.Request().Context()
	res, err := s.Backend.SearchByContextAndSentiment(ctx, req.Text, tag)
	if err != nil {
		logging.FromContext(ctx).Error("failed to search tickets", "context_tag", tag, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to search tickets").SetInternal(err)
	}

	return c.JSON(http.StatusOK, res.Tickets)
}
