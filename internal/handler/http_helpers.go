package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func formatPercent(rate int) string {
	return fmt.Sprintf("%d%%", rate)
}

func formatRatio(value, total int) string {
	return fmt.Sprintf("%d/%d", value, total)
}
