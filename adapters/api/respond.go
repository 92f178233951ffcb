package api

import (
	stderrors "errors"
	"net/http"

	"goanalyst/domain/core"
	"goanalyst/internal/errors"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain failures onto HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsInputError(err):
		return http.StatusBadRequest
	}
	switch codeOf(err) {
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// codeOf finds the outermost AppError code, even behind fmt wrapping
func codeOf(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if core.IsInputError(err) {
		return errors.CodeInvalidInput
	}
	return errors.CodeInternalError
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		s.logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": codeOf(err)})
}

// bindJSON decodes the body, answering 400 itself when it cannot
func (s *Server) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.respondError(c, errors.InvalidInputf("invalid request body: %v", err))
		return false
	}
	return true
}
