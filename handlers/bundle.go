// File: bookwise/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Dialogue endpoints.
	ChatHandler         gin.HandlerFunc
	StartSessionHandler gin.HandlerFunc
	GetSessionHandler   gin.HandlerFunc

	// Calendar endpoints.
	AvailabilityHandler gin.HandlerFunc

	// Auth endpoints.
	IssueTokenHandler gin.HandlerFunc
}
