package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func boolQuery(c *gin.Context, name string) bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}
