package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterFallback serves the built UI from StaticDir. API prefixes and
// deployments without a UI answer unknown routes with JSON.
func (r *Router) RegisterFallback() {
	staticDir := r.cfg.StaticDir
	r.engine.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if staticDir == "" || isAPIPath(path) || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}

		// static assets (vite)
		if fileExists(staticDir, path) {
			c.File(filepath.Join(staticDir, filepath.Clean(path)))
			return
		}

		// SPA fallback
		c.File(filepath.Join(staticDir, "index.html"))
	})
}

func isAPIPath(path string) bool {
	for _, prefix := range []string{"/api/", "/user/", "/admin/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean("/" + reqPath)

	// prevent path traversal
	if clean == "/" {
		return false
	}

	info, err := os.Stat(filepath.Join(publicDir, clean))
	if err != nil {
		return false
	}

	return !info.IsDir()
}
