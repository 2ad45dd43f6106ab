package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/chat-system/internal/core/ports"
)

// MessageHandler handles the direct messaging routes.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Contacts lists every other account for the sidebar.
//
// @Summary      List contacts
// @Tags         messages
// @Produce      json
// @Security     CookieAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/messages/users [get]
func (h *MessageHandler) Contacts(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	users, err := h.service.Contacts(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Conversation returns the messages exchanged with another account.
//
// @Summary      Conversation
// @Tags         messages
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Other account id"
// @Success      200  {array}   domain.Message
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/messages/{id} [get]
func (h *MessageHandler) Conversation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	msgs, err := h.service.Conversation(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// Send stores a message for another account and pushes it live when the
// receiver is online.
//
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string              true  "Receiver account id"
// @Param        body  body      sendMessageRequest  true  "Text and/or image"
// @Success      201   {object}  domain.Message
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/messages/send/{id} [post]
func (h *MessageHandler) Send(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID:   user.ID,
		ReceiverID: c.Param("id"),
		Text:       req.Text,
		Image:      req.Image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}
