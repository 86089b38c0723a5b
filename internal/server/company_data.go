package server

import (
	"net/http"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetCompanyData(c *gin.Context) {
	record, err := s.companySvc.Get(c.Request.Context(), companydomain.GetRequest{
		Identifier:        c.Param("identifier"),
		Refresh:           boolQuery(c, "update"),
		NotificationEmail: c.Query("email_callback"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}
