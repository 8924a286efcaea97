package http

import (
	"fmt"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/relay/internal/adapters/signal"
	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/config"
	"github.com/dkeye/relay/internal/metrics"
	api "github.com/dkeye/relay/internal/transport/http"
)

func cacheControl(maxAge float64) string {
	return fmt.Sprintf("must-revalidate, max-age=%.0f", maxAge)
}

// SecurityHeaders sets the conservative response headers every page gets.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-Download-Options", "noopen")
		c.Next()
	}
}

// staticFrom serves files under root at "/", stamping cacheHeader on hits.
// Misses fall through to the next handler.
func staticFrom(root, cacheHeader string) gin.HandlerFunc {
	files := static.LocalFile(root, false)
	serve := static.Serve("/", files)
	return func(c *gin.Context) {
		if cacheHeader != "" && files.Exists("/", c.Request.URL.Path) {
			c.Header("Cache-Control", cacheHeader)
		}
		serve(c)
	}
}

func SetupRouter(cfg *config.Config, ctl *signal.SignalWSController, reg *app.Registry, m *metrics.Metrics) *gin.Engine {
	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if !cfg.Release() {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(SecurityHeaders())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RelaySession", store))

	var staticCache string
	if cfg.Release() {
		staticCache = cacheControl(cfg.StaticMaxAge.Seconds())
	}
	previewCache := cacheControl(cfg.PreviewMaxAge.Seconds())

	r.Use(staticFrom(cfg.BuildPath, staticCache))
	r.Use(staticFrom(cfg.LibPath, staticCache))

	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.BuildPath, "html", "index.html"))
	})
	r.GET("/preview", func(c *gin.Context) {
		c.Header("Cache-Control", previewCache)
		c.File(filepath.Join(cfg.BuildPath, "html", "preview.html"))
	})

	r.GET("/socket", ctl.HandleSignal)

	handlers := api.API{Registry: reg}
	r.GET("/healthz", handlers.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	apiGroup := r.Group("/api")
	apiGroup.GET("/rooms", handlers.Rooms)
	apiGroup.GET("/rooms/:id", handlers.Room)
	apiGroup.GET("/session", handlers.EditorSession)

	log.Info().Str("module", "adapters.http").Str("build", cfg.BuildPath).Str("lib", cfg.LibPath).Msg("router setup")
	return r
}
