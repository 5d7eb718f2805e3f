package util

import (
	"fmt"
	"net/http"

	"github.com/SeakMengs/CertEditor/internal/constant"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every json endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func BuildResponseSuccess(data any) Response {
	if data == nil {
		data = gin.H{}
	}

	return Response{
		Success: true,
		Message: constant.REQUEST_SUCCESSFUL,
		Data:    data,
	}
}

func ResponseSuccess(ctx *gin.Context, data any) {
	ctx.AbortWithStatusJSON(http.StatusOK, BuildResponseSuccess(data))
}

// BuildResponseFailed accepts either an error, which is turned into ApiErrors,
// or errors that are already formatted.
func BuildResponseFailed(message string, err any, data any) Response {
	if message == "" {
		message = constant.REQUEST_UNSUCCESSFUL
	}

	switch e := err.(type) {
	case nil:
		err = gin.H{}
	case error:
		err = GenerateErrorMessages(e)
	}

	if data == nil {
		data = gin.H{}
	}

	return Response{
		Success: false,
		Message: message,
		Errors:  err,
		Data:    data,
	}
}

func ResponseFailed(ctx *gin.Context, code int, message string, err any, data any) {
	ctx.AbortWithStatusJSON(code, BuildResponseFailed(message, err, data))
}

// ResponseAttachment answers with raw bytes the browser saves as filename.
func ResponseAttachment(ctx *gin.Context, filename, contentType string, data []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, contentType, data)
	ctx.Abort()
}
