package server

import (
	"net/http"
	"strings"

	"github.com/bflows/riskproxy/internal/aggregate"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetCompanyReport(c *gin.Context) {
	identifier := strings.TrimSpace(c.Param("identifier"))
	if identifier == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report := s.aggregateSvc.Aggregate(c.Request.Context(), aggregate.Request{
		Identifier:        identifier,
		Refresh:           boolQuery(c, "update"),
		NotificationEmail: c.Query("email_callback"),
	})

	c.JSON(http.StatusOK, report)
}
