// File: frontdesk/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Dialogue endpoints
	VoiceTurnHandler  gin.HandlerFunc
	TextTurnHandler   gin.HandlerFunc
	EndSessionHandler gin.HandlerFunc
}
