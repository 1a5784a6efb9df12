package gin

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
)

func (s *Server) registerFeedRoutes(r *gin.RouterGroup) {
	r.GET("/feed", s.handleFeed)
}

// handleFeed renders the user's items in one status as RSS. The status
// defaults to queue so feed readers pick up the reading list.
func (s *Server) handleFeed(c *gin.Context) {
	status := bookmarks.StatusQueue
	if v := c.Query("status"); v != "" {
		var err error
		if status, err = bookmarks.ParseStatus(v); err != nil {
			s.Error(c, err)
			return
		}
	}

	limit, err := queryInt(c, "limit", DefaultListLimit)
	if err != nil {
		s.Error(c, err)
		return
	}

	uid := userID(c)
	items, err := s.Items.FindItems(c.Request.Context(), bookmarks.ItemFilter{
		UserID: &uid,
		Status: &status,
		Limit:  min(limit, MaxListLimit),
	})
	if err != nil {
		s.Error(c, err)
		return
	}

	feed := &bookmarks.Feed{
		Title:       fmt.Sprintf("Bookmarks: %s", status),
		Link:        requestOrigin(c),
		Description: fmt.Sprintf("Saved items in %s", status),
		Items:       items,
	}

	var buf bytes.Buffer
	if err := s.Feeds.WriteFeed(&buf, feed); err != nil {
		s.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", buf.Bytes())
}

func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/"
}
