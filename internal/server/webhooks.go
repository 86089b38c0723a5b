package server

import (
	"net/http"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Webhook handlers acknowledge the upstream with 200 even when the callback
// cannot be matched. Anything else makes the upstream retry deliveries we
// have already decided to drop.
func (s *Server) HandleCompanyDataWebhook(c *gin.Context) {
	s.handleWebhook(c, companydomain.Family)
}

func (s *Server) HandleNegativeEventWebhook(c *gin.Context) {
	s.handleWebhook(c, negativedomain.Family)
}

func (s *Server) handleWebhook(c *gin.Context, family string) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.webhookSvc.IngestCallback(c.Request.Context(), family, payload); err != nil {
		s.log.Error("webhook ingestion failed",
			zap.String("family", family),
			zap.Error(err),
		)
		AbortWithError(c, ErrInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
