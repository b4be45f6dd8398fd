package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thefndrs/allons-api/internal/api/handler/v1/response"
	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/notifier"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type MessageReader interface {
	FindMessages(ctx context.Context, userA, userB uint) ([]domain.ChatMessage, error)
}

type NotificationHandler struct {
	hub      *notifier.Hub
	messages MessageReader
	uSvc     UserService
}

func NewNotificationHandler(hub *notifier.Hub, messages MessageReader, uSvc UserService) *NotificationHandler {
	return &NotificationHandler{
		hub:      hub,
		messages: messages,
		uSvc:     uSvc,
	}
}

// HandleWebSocket godoc
// @Summary      Subscribe to live notifications
// @Description  Upgrades to a WebSocket that receives gift and redemption notices.
// @Tags         notifications
// @Produce      json
// @Success      101  {string}  string  "Switching Protocols to WebSocket"
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /notifications/ws [get]
// @Security     BearerAuth
func (h *NotificationHandler) HandleWebSocket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Attach(conn, user.ID)
}

// HandleListMessages godoc
// @Summary      List direct messages with another user
// @Description  Returns the message thread between the caller and the given user, oldest first. Gift notices land here.
// @Tags         notifications
// @Produce      json
// @Param        userID   path      int  true  "other user ID"
// @Success      200      {array}   domain.ChatMessage
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /messages/{userID} [get]
// @Security     BearerAuth
func (h *NotificationHandler) HandleListMessages(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	otherID, err := strconv.ParseUint(ctx.Param("userID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID: %w", err)))
		return
	}

	messages, err := h.messages.FindMessages(ctx.Request.Context(), user.ID, uint(otherID))
	if err != nil {
		err = fmt.Errorf("v1.HandleListMessages -> h.messages.FindMessages -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}
