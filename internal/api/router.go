package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/vidgrab/vidgrab/internal/api/controllers"
	"github.com/vidgrab/vidgrab/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	infoCtrl := &controllers.InfoController{App: app}
	dlCtrl := controllers.NewDownloadController(app)

	// Synchronous metadata lookups
	e.GET("/api/video/info", infoCtrl.HandleVideoInfo)
	e.GET("/api/playlist/info", infoCtrl.HandlePlaylistInfo)

	// Streaming download channel + fire-and-forget trigger
	e.GET("/api/ws/download", dlCtrl.HandleStream)
	e.POST("/api/download", dlCtrl.HandleDownload)

	// Finished files are served straight from the downloads directory
	e.Static("/downloads", app.Config.Download.Dir)
}
