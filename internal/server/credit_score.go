package server

import (
	"net/http"

	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetCreditScore(c *gin.Context) {
	record, err := s.creditSvc.Get(c.Request.Context(), creditdomain.GetRequest{
		Identifier: c.Param("identifier"),
		Refresh:    boolQuery(c, "update"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}
