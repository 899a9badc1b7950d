package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs beyond the handlers.
type RouterConfig struct {
	Origins   []string
	StaticDir string
}

// NewRouter wires the REST commands, the websocket endpoint and, when
// StaticDir is set, the built frontend.
func NewRouter(api *APIHandler, ws *WSHandler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors(cfg.Origins))
	router.Use(requestLogger(logger))

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", api.Health)
	apiGroup.POST("/student/register", api.RegisterStudent)
	apiGroup.GET("/poll/status", api.Status)
	apiGroup.POST("/poll/create", api.CreateQuestion)
	apiGroup.POST("/poll/answer", api.SubmitAnswer)
	apiGroup.GET("/poll/results", api.Results)
	apiGroup.GET("/poll/history", api.History)

	router.GET("/ws", gin.WrapF(ws.ServeWS))

	if cfg.StaticDir != "" {
		router.NoRoute(spaFallback(cfg.StaticDir))
	}
	return router
}

// spaFallback serves files from dir and index.html for unknown paths.
func spaFallback(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			fail(c, http.StatusNotFound, "not found")
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(index)
	}
}
