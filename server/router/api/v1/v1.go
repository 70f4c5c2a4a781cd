package v1

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ticketsense/ai/core/retrieval"
	"github.com/hrygo/ticketsense/ai/services/ticket"
	"github.com/hrygo/ticketsense/internal/profile"
)

// TicketBackend is the ticket pipeline the handlers call into. *ticket.Service implements it.
type TicketBackend interface {
	SummarizeAndStore(ctx context.Context, text string) (*ticket.IngestResult, error)
	SearchByContextAndSentiment(ctx context.Context, query, contextTag string) (*retrieval.Result, error)
}

type APIV1Service struct {
	TicketService *TicketService

	Profile *profile.Profile
}

func NewAPIV1Service(profile *profile.Profile, backend TicketBackend) *APIV1Service {
	return &APIV1Service{
		TicketService: &TicketService{Backend: backend},
		Profile:       profile,
	}
}

// RegisterRoutes mounts the ticket endpoints on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/summarize")
	g.POST("", s.TicketService.Summarize)
	g.POST("/search", s.TicketService.Search)
}
