package response

import "github.com/gin-gonic/gin"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response is the envelope every JSON endpoint answers with. Exactly one of
// Data and Error is set.
type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func Success(statusCode int, data any) Response {
	return Response{Status: statusSuccess, StatusCode: statusCode, Data: data}
}

func Error(statusCode int, msg string) Response {
	return Response{Status: statusError, StatusCode: statusCode, Error: msg}
}

// Abort stops the handler chain with an error envelope
func Abort(c *gin.Context, statusCode int, msg string) {
	c.AbortWithStatusJSON(statusCode, Error(statusCode, msg))
}
