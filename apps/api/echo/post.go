package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/post"
	"github.com/edukit/eduhub/core/user"
)

type postApi struct {
	svc      post.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerPostAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := postApi{
		svc:      opts.PostSvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	pg := g.Group("/posts")

	// the feed is public; demo personas browse it without an account
	pg.GET("", api.latest)
	pg.GET("/:id", api.retrieve)

	ag := pg.Group("", jwt)
	ag.POST("", api.create)
	ag.POST("/:id/like", api.like)
	ag.DELETE("/:id", api.destroy)
}

func (api *postApi) latest(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	posts, err := api.svc.Latest(limit)
	if err != nil {
		return errors.Wrap(err, "querying latest posts")
	}
	if posts == nil {
		posts = []post.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *postApi) retrieve(ctx echo.Context) error {
	pst, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding post by ID")
	}
	return ctx.JSON(http.StatusOK, pst)
}

func (api *postApi) create(ctx echo.Context) error {
	var data post.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pst, err := api.svc.Create(ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, pst)
}

func (api *postApi) like(ctx echo.Context) error {
	likes, err := api.svc.Like(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == post.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "liking post")
	}
	return ctx.JSON(http.StatusOK, LikeResponse{Likes: likes})
}

func (api *postApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctxUsr, ctx.Param("id")); err != nil {
		switch errors.Cause(err) {
		case post.ErrNotFound:
			return errHttpNotFound
		case post.ErrNotAuthor:
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type LikeResponse struct {
	Likes int `json:"likes"`
}
