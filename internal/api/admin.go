package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InvalidateCatalog drops cached plans after an administrator edits them.
func (r *Router) InvalidateCatalog(c *gin.Context) {
	if r.invalidator == nil {
		c.JSON(http.StatusOK, gin.H{"status": "cache_disabled"})
		return
	}

	if err := r.invalidator.Invalidate(c.Request.Context()); err != nil {
		r.logger.Error("failed to invalidate catalog cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate catalog"})
		return
	}

	r.logger.Info("catalog cache invalidated")
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
