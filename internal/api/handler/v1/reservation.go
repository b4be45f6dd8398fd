package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefndrs/allons-api/internal/api/handler/v1/request"
	"github.com/thefndrs/allons-api/internal/api/handler/v1/response"
	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/service"
)

type ReservationService interface {
	UpsertReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	GetReservation(ctx context.Context, userID uint, eventID string) (domain.Reservation, error)
	CancelReservation(ctx context.Context, userID uint, eventID string) error
}

type ReservationHandler struct {
	svc  ReservationService
	gSvc GiftService
	uSvc UserService
}

func NewReservationHandler(svc ReservationService, gSvc GiftService, uSvc UserService) *ReservationHandler {
	return &ReservationHandler{
		svc:  svc,
		gSvc: gSvc,
		uSvc: uSvc,
	}
}

// HandleUpsertReservation godoc
// @Summary      Create or replace the caller's reservation for an event
// @Description  Quantity zero cancels the reservation. Reducing the quantity
// @Description  below the number of already gifted tickets is rejected.
// @Description  Recipients, when given, gift tickets out of the new quantity
// @Description  in the same call.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                            true  "event ID"
// @Param        request  body      request.UpsertReservationRequest  true  "request body"
// @Success      200      {object}  response.ReservationResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/reservation [put]
// @Security     BearerAuth
func (h *ReservationHandler) HandleUpsertReservation(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.UpsertReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	eventID := ctx.Param("eventID")

	reservation, err := h.svc.UpsertReservation(ctx.Request.Context(), domain.Reservation{
		UserID:           user.ID,
		EventID:          eventID,
		Quantity:         req.Quantity,
		TicketHolderName: req.TicketHolderName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidQuantity))
		case errors.Is(err, service.ErrCapacityExceeded):
			response.RenderErr(ctx, response.ErrConflict(service.ErrCapacityExceeded))
		case errors.Is(err, service.ErrTicketsLocked):
			response.RenderErr(ctx, response.ErrConflict(service.ErrTicketsLocked))
		default:
			err = fmt.Errorf("v1.HandleUpsertReservation -> h.svc.UpsertReservation -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	resp := response.ReservationResponse{Reservation: reservation}

	// The reservation write stands on its own; a failed gift batch does not
	// roll it back.
	if len(req.Recipients) > 0 {
		recipients := make([]domain.Recipient, len(req.Recipients))
		for i, r := range req.Recipients {
			if r.FriendID != 0 {
				recipients[i] = domain.FriendRecipient(r.FriendID)
			} else {
				recipients[i] = domain.EmailRecipient(r.Email)
			}
		}

		batch, err := h.gSvc.GiftTickets(ctx.Request.Context(), user.ID, eventID, recipients)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFriends):
				response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotFriends))
			case errors.Is(err, service.ErrInsufficientTickets):
				response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientTickets))
			default:
				err = fmt.Errorf("v1.HandleUpsertReservation -> h.gSvc.GiftTickets -> %w", err)
				response.RenderErr(ctx, response.ErrInternalServerError(err))
			}
			return
		}

		batchResp := response.NewGiftBatchResponse(batch)
		resp.GiftResults = &batchResp
	}

	ctx.JSON(http.StatusOK, resp)
}

// HandleGetReservation godoc
// @Summary      Get the caller's reservation for an event
// @Tags         reservations
// @Produce      json
// @Param        eventID  path      string  true  "event ID"
// @Success      200      {object}  domain.Reservation
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/reservation [get]
// @Security     BearerAuth
func (h *ReservationHandler) HandleGetReservation(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")

	reservation, err := h.svc.GetReservation(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("reservation", "eventID", eventID))
			return
		}

		err = fmt.Errorf("v1.HandleGetReservation -> h.svc.GetReservation -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reservation)
}

// HandleCancelReservation godoc
// @Summary      Cancel the caller's reservation for an event
// @Description  Rejected while the reservation still holds gifted tickets.
// @Tags         reservations
// @Produce      json
// @Param        eventID  path      string  true  "event ID"
// @Success      204      {string}  string  "no content"
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/reservation [delete]
// @Security     BearerAuth
func (h *ReservationHandler) HandleCancelReservation(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")

	if err := h.svc.CancelReservation(ctx.Request.Context(), user.ID, eventID); err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("reservation", "eventID", eventID))
		case errors.Is(err, service.ErrTicketsLocked):
			response.RenderErr(ctx, response.ErrConflict(service.ErrTicketsLocked))
		default:
			err = fmt.Errorf("v1.HandleCancelReservation -> h.svc.CancelReservation -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
