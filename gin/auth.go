package gin

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
)

// authenticate resolves the bearer API key and stores its user ID in the
// request context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			s.Error(c, bookmarks.Errorf(bookmarks.EUNAUTHORIZED, "API key required"))
			return
		}

		key, err := s.APIKeys.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.Error(c, err)
			return
		}

		ctx := bookmarks.NewContextWithUserID(c.Request.Context(), key.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userID returns the authenticated user of the request.
func userID(c *gin.Context) string {
	return bookmarks.UserIDFromContext(c.Request.Context())
}
