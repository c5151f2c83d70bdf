package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeOK               = 0
	CodeBadRequest       = 40000
	CodeEmptyFile        = 40001
	CodeInvalidFilename  = 40002
	CodeDocumentNotFound = 40401
	CodeFileNotFound     = 40402
	CodePayloadTooLarge  = 41300
	CodeUnsupportedFile  = 41500
	CodeParsingFailed    = 42200
	CodeInternalServer   = 50000
	CodeDatabase         = 50001
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	Status(c, http.StatusOK, "ok", data)
}

// Status writes a successful envelope with a non-200 status such as 201 or 202.
func Status(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    CodeOK,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
