package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/library"
	"github.com/edukit/eduhub/core/user"
)

type libraryApi struct {
	svc      library.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerLibraryAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := libraryApi{
		svc:      opts.LibrarySvc,
		userSvc:  opts.UserSvc,
		validate: opts.Validate,
	}

	lg := g.Group("/library")

	// catalogue browsing is public
	lg.GET("/resources", api.queryResources)
	lg.GET("/videos", api.queryVideos)

	ag := lg.Group("", jwt)
	ag.POST("/resources", api.uploadResource)
	ag.GET("/resources/:id/download", api.resourceDownloadURL)
	ag.DELETE("/resources/:id", api.destroyResource)
	ag.POST("/videos", api.uploadVideo)
	ag.GET("/videos/:id/download", api.videoDownloadURL)
	ag.DELETE("/videos/:id", api.destroyVideo)
}

func (api *libraryApi) queryResources(ctx echo.Context) error {
	filter := new(library.ResourceFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []library.Resource{})
	}
	filter.Clean()

	resources, err := api.svc.Resources(*filter)
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	if resources == nil {
		resources = []library.Resource{}
	}
	return ctx.JSON(http.StatusOK, resources)
}

func (api *libraryApi) uploadResource(ctx echo.Context) error {
	data := library.NewResource{
		Title:   ctx.FormValue("title"),
		Kind:    ctx.FormValue("kind"),
		Subject: ctx.FormValue("subject"),
		Grade:   ctx.FormValue("grade"),
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	hdr, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(err, "reading form file")
	}
	body, err := hdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	defer body.Close()

	res, err := api.svc.UploadResource(
		ctx.Request().Context(), ctxUsr, data,
		body, hdr.Size, hdr.Header.Get(echo.HeaderContentType),
	)
	if err != nil {
		if errors.Cause(err) == library.ErrUploadForbidden {
			return errHttpForbidden
		}
		return errors.Wrap(err, "uploading resource")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *libraryApi) resourceDownloadURL(ctx echo.Context) error {
	url, err := api.svc.ResourceDownloadURL(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "generating download URL")
	}
	return ctx.JSON(http.StatusOK, DownloadURLResponse{URL: url})
}

func (api *libraryApi) destroyResource(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteResource(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		switch errors.Cause(err) {
		case library.ErrNotFound:
			return errHttpNotFound
		case library.ErrDeleteForbidden:
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting resource")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *libraryApi) queryVideos(ctx echo.Context) error {
	filter := new(library.ResourceFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []library.Video{})
	}
	filter.Clean()

	videos, err := api.svc.Videos(*filter)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	if videos == nil {
		videos = []library.Video{}
	}
	return ctx.JSON(http.StatusOK, videos)
}

func (api *libraryApi) uploadVideo(ctx echo.Context) error {
	duration, _ := strconv.Atoi(ctx.FormValue("duration"))
	data := library.NewVideo{
		Title:    ctx.FormValue("title"),
		Subject:  ctx.FormValue("subject"),
		Grade:    ctx.FormValue("grade"),
		Duration: duration,
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	hdr, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(err, "reading form file")
	}
	body, err := hdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	defer body.Close()

	vid, err := api.svc.UploadVideo(
		ctx.Request().Context(), ctxUsr, data,
		body, hdr.Size, hdr.Header.Get(echo.HeaderContentType),
	)
	if err != nil {
		if errors.Cause(err) == library.ErrUploadForbidden {
			return errHttpForbidden
		}
		return errors.Wrap(err, "uploading video")
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *libraryApi) videoDownloadURL(ctx echo.Context) error {
	url, err := api.svc.VideoDownloadURL(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "generating download URL")
	}
	return ctx.JSON(http.StatusOK, DownloadURLResponse{URL: url})
}

func (api *libraryApi) destroyVideo(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.svc.DeleteVideo(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		switch errors.Cause(err) {
		case library.ErrNotFound:
			return errHttpNotFound
		case library.ErrDeleteForbidden:
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}
