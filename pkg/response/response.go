package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope every failing route returns.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends a 200 JSON response with the given payload as-is. Routes own their
// success shapes (the frontend depends on them verbatim), so there is no
// success envelope.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err})
}

// BadRequestPayload sends 400 with a caller-supplied body for routes that
// attach extra fields to the error (e.g. the refund-claim pointer).
func BadRequestPayload(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusBadRequest, payload)
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: err})
}

// Internal sends 500. Use a generic message; operational detail belongs in
// server logs, never in the body.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: err})
}
