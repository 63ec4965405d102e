package server

import (
	"bytes"
	"encoding/json"
	"strings"

	"shop-sim-viewer/src/helpers"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// respondError logs err and answers with its status and a short message.
func (s *ViewerServer) respondError(c *gin.Context, err error, context string) {
	s.Errors.Handle(err, context)
	c.JSON(s.Errors.HTTPStatus(err), gin.H{
		"success": false,
		"error":   helpers.UserMessage(err),
	})
}

// -----------------------------------------------------------------------------

// rawText returns the text of a JSON string or number as typed by the user. The budget form
// sends strings; scripts tend to send numbers.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// -----------------------------------------------------------------------------

// bindJSON decodes an optional JSON body. An empty body leaves out untouched.
func bindJSON(c *gin.Context, out interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil {
		return helpers.NewValidationError("body", "invalid JSON body: %v", err)
	}
	return nil
}
