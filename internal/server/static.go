package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled frontend next to the API. Every piece
// is optional: a missing directory or file downgrades to API only mode
// with a warning instead of failing startup.
func (s *Server) mountStatic() {
	dir := s.cfg.StaticDir
	if dir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", dir)
		return
	}

	if index := filepath.Join(dir, "index.html"); exists(index) {
		serveIndex := func(c *gin.Context) { c.File(index) }
		s.engine.GET("/", serveIndex)
		s.engine.NoRoute(func(c *gin.Context) {
			// Unknown API paths stay JSON errors; everything else
			// falls through to the SPA router.
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				respondFail(c, http.StatusNotFound, "endpoint not found")
				return
			}
			serveIndex(c)
		})
	} else {
		s.logger.Warn("index.html not found", "path", index)
	}

	if assets := filepath.Join(dir, "assets"); exists(assets) {
		s.engine.StaticFS("/assets", gin.Dir(assets, true))
	}
	if favicon := filepath.Join(dir, "favicon.ico"); exists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
