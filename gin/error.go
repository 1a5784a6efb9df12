package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	bookmarks.ECONFLICT:       http.StatusConflict,
	bookmarks.EINVALID:        http.StatusBadRequest,
	bookmarks.ENOTFOUND:       http.StatusNotFound,
	bookmarks.ENOTIMPLEMENTED: http.StatusNotImplemented,
	bookmarks.EUNAUTHORIZED:   http.StatusUnauthorized,
	bookmarks.EINTERNAL:       http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// Error writes err as a JSON error response and aborts the request.
// Internal errors are logged; their details are never sent to the client.
func (s *Server) Error(c *gin.Context, err error) {
	code, message := bookmarks.ErrorCode(err), bookmarks.ErrorMessage(err)

	if code == bookmarks.EINTERNAL {
		s.logger().Error("Internal error.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"err", err,
		)
	}

	c.AbortWithStatusJSON(ErrorStatusCode(code), gin.H{"error": message})
}
