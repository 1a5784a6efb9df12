package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
)

func (s *Server) registerTopicRoutes(r *gin.RouterGroup) {
	r.GET("/topics", s.handleTopicIndex)
}

func (s *Server) handleTopicIndex(c *gin.Context) {
	uid := userID(c)
	topics, err := s.Topics.FindTopics(c.Request.Context(), bookmarks.TopicFilter{UserID: &uid})
	if err != nil {
		s.Error(c, err)
		return
	}
	if topics == nil {
		topics = []*bookmarks.Topic{}
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
