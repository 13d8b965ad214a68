// Package response writes the {code, message, data} envelope every endpoint returns.
package response

import (
	"net/http"

	"tuition-billing/internal/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	CodeOK   = 0
	CodeFail = 1
)

type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Code: CodeOK, Message: message, Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Code: CodeFail, Message: message})
}

// Error maps err through apperrors. Details are never sent to the client.
func Error(c *gin.Context, err error) {
	Fail(c, apperrors.HTTPStatus(err), apperrors.Message(err))
}
