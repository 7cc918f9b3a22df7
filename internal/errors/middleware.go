package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RecoveryMiddleware turns panics into 500 responses instead of killing the
// process.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// ErrorHandlerMiddleware renders the first error a handler attached via
// c.Error as a JSON response with the matching status code.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors[0].Err
		e := Err(err)
		if e.HTTPStatus() >= http.StatusInternalServerError {
			log.Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Msg})
	}
}
