package server

import (
	"net/http"

	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetNegativeEvent(c *gin.Context) {
	result, err := s.negativeSvc.Get(c.Request.Context(), negativedomain.GetRequest{
		Identifier:        c.Query("cf_piva"),
		Refresh:           boolQuery(c, "update"),
		NotificationEmail: c.Query("email_callback"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
