package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/messaging"
	"github.com/edukit/eduhub/core/user"
)

type messagingApi struct {
	svc      messaging.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerMessagingAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := messagingApi{
		svc:      opts.MessagingSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	mg := g.Group("/messages", jwt)

	mg.POST("", api.send)
	mg.GET("", api.inbox)
	mg.GET("/:peerID", api.conversation)
	mg.POST("/:peerID/read", api.markRead)
}

func (api *messagingApi) send(ctx echo.Context) error {
	var data messaging.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Send(ctxUsr, data)
	if err != nil {
		switch errors.Cause(err) {
		case messaging.ErrSelfMessaging:
			return core.NewValidationError(err)
		case user.ErrNotFound:
			return core.NewValidationError(nil, core.FieldError{Field: "recipient_id", Error: "recipient not found"})
		}
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messagingApi) inbox(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	convos, err := api.svc.Inbox(ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying inbox")
	}
	if convos == nil {
		convos = []messaging.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convos)
}

func (api *messagingApi) conversation(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msgs, err := api.svc.Conversation(ctxUsr, ctx.Param("peerID"))
	if err != nil {
		return errors.Wrap(err, "querying conversation")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messagingApi) markRead(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	n, err := api.svc.MarkRead(ctxUsr, ctx.Param("peerID"))
	if err != nil {
		return errors.Wrap(err, "marking conversation read")
	}
	return ctx.JSON(http.StatusOK, MarkReadResponse{Read: n})
}

type MarkReadResponse struct {
	Read int `json:"read"`
}
