package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefndrs/allons-api/internal/api/handler/v1/response"
	"github.com/thefndrs/allons-api/internal/domain"
)

type EventService interface {
	GetEvent(ctx context.Context, id string) *domain.Event
	ListEvents(ctx context.Context) []domain.Event
	RemainingCapacity(ctx context.Context, eventID string) (*int, error)
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleListEvents godoc
// @Summary      List all events
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.svc.ListEvents(ctx.Request.Context()))
}

// HandleGetEvent godoc
// @Summary      Get one event with its remaining capacity
// @Tags         events
// @Produce      json
// @Param        eventID  path      string  true  "event ID"
// @Success      200      {object}  response.EventResponse
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID := ctx.Param("eventID")

	event := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if event == nil {
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		return
	}

	remaining, err := h.svc.RemainingCapacity(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.RemainingCapacity -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.EventResponse{
		Event:             *event,
		RemainingCapacity: remaining,
	})
}
