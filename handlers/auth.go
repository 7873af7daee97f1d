package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"bookwise/config"
	"bookwise/utils"
)

// tokenTTL bounds how long an issued client JWT stays valid.
const tokenTTL = 12 * time.Hour

// IssueToken exchanges the deployment's API token for a signed JWT. The raw
// API token is never stored; only its bcrypt hash lives in configuration.
func IssueToken(c *gin.Context) {
	var req struct {
		ClientID string `json:"clientId" binding:"required"`
		APIToken string `json:"apiToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.APITokenHash), []byte(req.APIToken)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API token"})
		return
	}

	token, err := utils.GenerateToken(req.ClientID, tokenTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to issue token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(tokenTTL.Seconds())})
}
