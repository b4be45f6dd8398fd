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

type GiftService interface {
	GiftTickets(ctx context.Context, giverID uint, eventID string, recipients []domain.Recipient) (domain.GiftBatch, error)
	PreviewGift(ctx context.Context, token string) (domain.GiftPreview, error)
	Redeem(ctx context.Context, token string, claimer domain.User) (domain.Ticket, error)
	ListMyTickets(ctx context.Context, userID uint, eventID string) ([]domain.Ticket, error)
	ListSentGifts(ctx context.Context, userID uint) ([]domain.Ticket, error)
}

type TicketHandler struct {
	svc  GiftService
	uSvc UserService
}

func NewTicketHandler(svc GiftService, uSvc UserService) *TicketHandler {
	return &TicketHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleGiftTickets godoc
// @Summary      Gift tickets to friends or email addresses
// @Description  Hands one ticket per recipient out of the caller's reservation.
// @Description  The batch is all-or-nothing: if any recipient fails, nothing is gifted.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                     true  "event ID"
// @Param        request  body      request.GiftTicketsRequest true  "request body"
// @Success      200      {object}  response.GiftBatchResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/tickets/gift [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleGiftTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.GiftTicketsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	recipients := make([]domain.Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		if r.FriendID != 0 {
			recipients[i] = domain.FriendRecipient(r.FriendID)
		} else {
			recipients[i] = domain.EmailRecipient(r.Email)
		}
	}

	eventID := ctx.Param("eventID")

	batch, err := h.svc.GiftTickets(ctx.Request.Context(), user.ID, eventID, recipients)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRecipients):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrNoRecipients))
		case errors.Is(err, service.ErrReservationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("reservation", "eventID", eventID))
		case errors.Is(err, service.ErrNotFriends):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotFriends))
		case errors.Is(err, service.ErrInsufficientTickets):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientTickets))
		default:
			err = fmt.Errorf("v1.HandleGiftTickets -> h.svc.GiftTickets -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.NewGiftBatchResponse(batch))
}

// HandleListMyTickets godoc
// @Summary      List the caller's tickets for an event
// @Tags         tickets
// @Produce      json
// @Param        eventID  path      string  true  "event ID"
// @Success      200      {array}   domain.Ticket
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleListMyTickets(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListMyTickets(ctx.Request.Context(), user.ID, ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("v1.HandleListMyTickets -> h.svc.ListMyTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandleListSentGifts godoc
// @Summary      List the gifts the caller has sent
// @Tags         tickets
// @Produce      json
// @Success      200  {array}   domain.Ticket
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /gifts/sent [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleListSentGifts(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListSentGifts(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListSentGifts -> h.svc.ListSentGifts -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandlePreviewGift godoc
// @Summary      Preview a pending gift by token
// @Description  Public endpoint behind an unguessable token. The recipient
// @Description  address is masked since the link may be forwarded.
// @Tags         tickets
// @Produce      json
// @Param        token  path      string  true  "gift token"
// @Success      200    {object}  domain.GiftPreview
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /gifts/{token} [get]
func (h *TicketHandler) HandlePreviewGift(ctx *gin.Context) {
	token := ctx.Param("token")

	preview, err := h.svc.PreviewGift(ctx.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("gift", "token", token))
		case errors.Is(err, service.ErrGiftNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrGiftNotPending))
		default:
			err = fmt.Errorf("v1.HandlePreviewGift -> h.svc.PreviewGift -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, preview)
}

// HandleRedeemGift godoc
// @Summary      Redeem a gift token
// @Description  A gift bound to an account can only be redeemed by that
// @Description  account. Redeeming twice always fails, whoever tries.
// @Tags         tickets
// @Produce      json
// @Param        token  path      string  true  "gift token"
// @Success      200    {object}  domain.Ticket
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /gifts/{token}/redeem [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleRedeemGift(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	token := ctx.Param("token")

	ticket, err := h.svc.Redeem(ctx.Request.Context(), token, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			response.RenderErr(ctx, response.ErrNotFound("gift", "token", token))
		case errors.Is(err, service.ErrGiftNotForUser):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrGiftNotForUser))
		case errors.Is(err, service.ErrAlreadyRedeemed):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyRedeemed))
		default:
			err = fmt.Errorf("v1.HandleRedeemGift -> h.svc.Redeem -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, ticket)
}
