package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is the build version stamped at link time.
var Version = "dev"

// VersionHandler serves the build version.
type VersionHandler struct{}

// NewVersionHandler constructs a version handler.
func NewVersionHandler() *VersionHandler { return &VersionHandler{} }

// GetVersion returns the running build version.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": Version})
}
