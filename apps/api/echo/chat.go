package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core/chat"
)

type chatApi struct {
	svc *chat.Service
}

func registerChatAPI(g *echo.Group, svc *chat.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chat")
	cg.POST("/send", api.send)
	cg.GET("/messages/:user_id/:other_id", api.messages)
	cg.GET("/conversations/:user_id", api.conversations)
}

type sendMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
}

func (api *chatApi) send(ctx echo.Context) error {
	var data sendMessageRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to sendMessageRequest")
	}

	msg, err := api.svc.Send(data.SenderID, data.ReceiverID, data.Message)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msg)
}

// messages returns all messages between the pair. The first path param is
// the fetching user: their unread counter is reset as a side effect.
func (api *chatApi) messages(ctx echo.Context) error {
	msgs, err := api.svc.MessagesBetween(ctx.Param("user_id"), ctx.Param("other_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) conversations(ctx echo.Context) error {
	convs, err := api.svc.Conversations(ctx.Param("user_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, convs)
}
