package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Me(c *gin.Context) {
	p := principalFrom(c)
	if p == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, p)
}
