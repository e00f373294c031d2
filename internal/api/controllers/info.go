package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/vidgrab/vidgrab/internal/app"
	"github.com/vidgrab/vidgrab/internal/domain"
)

type InfoController struct {
	App *app.Context
}

// HandleVideoInfo returns metadata and the filtered format list for one
// video without downloading anything.
func (ctrl *InfoController) HandleVideoInfo(c *echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing url parameter"})
	}

	if info, ok := ctrl.App.Cache.GetVideo(url); ok {
		return c.JSON(http.StatusOK, info)
	}

	info, err := ctrl.App.Extractor.VideoInfo(c.Request().Context(), url)
	if err != nil {
		return ctrl.lookupError(c, err)
	}

	ctrl.App.Cache.PutVideo(url, info)

	return c.JSON(http.StatusOK, info)
}

// HandlePlaylistInfo returns flat metadata for every entry of a
// playlist. Entries carry no format lists.
func (ctrl *InfoController) HandlePlaylistInfo(c *echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing url parameter"})
	}

	info, err := ctrl.App.Extractor.PlaylistInfo(c.Request().Context(), url)
	if err != nil {
		return ctrl.lookupError(c, err)
	}

	return c.JSON(http.StatusOK, info)
}

// lookupError maps the lookup error taxonomy onto HTTP statuses.
func (ctrl *InfoController) lookupError(c *echo.Context, err error) error {
	ctrl.App.Logger.Warn("lookup failed: %v", err)

	switch {
	case errors.Is(err, domain.ErrVideoNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "video not found"})
	case errors.Is(err, domain.ErrURLInaccessible), errors.Is(err, domain.ErrNotPlaylist):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited, try again later"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch video information"})
	}
}
