package gin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/ingest"
)

// Page size limits for item listings.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

func (s *Server) registerItemRoutes(r *gin.RouterGroup) {
	r.POST("/items", s.handleItemCreate)
	r.GET("/items", s.handleItemIndex)
	r.GET("/items/:id", s.handleItemView)
	r.PATCH("/items/:id", s.handleItemUpdate)
	r.DELETE("/items/:id", s.handleItemDelete)
	r.POST("/items/:id/reprocess", s.handleItemReprocess)
}

type createItemRequest struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// handleItemCreate saves a URL. Responds 201 for a new item and 200 when the
// user had already saved it.
func (s *Server) handleItemCreate(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Error(c, bookmarks.Errorf(bookmarks.EINVALID, "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.Error(c, bookmarks.Errorf(bookmarks.EINVALID, "url required"))
		return
	}

	var opts ingest.SaveOptions
	if req.Status != "" {
		status, err := bookmarks.ParseStatus(req.Status)
		if err != nil {
			s.Error(c, err)
			return
		}
		opts.Status = status
	}

	item, created, err := s.Ingester.Save(c.Request.Context(), userID(c), req.URL, opts)
	if err != nil {
		s.Error(c, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, item)
}

// handleItemIndex lists the user's items. Content is omitted from listings.
func (s *Server) handleItemIndex(c *gin.Context) {
	filter, err := parseItemFilter(c)
	if err != nil {
		s.Error(c, err)
		return
	}
	uid := userID(c)
	filter.UserID = &uid

	items, err := s.Items.FindItems(c.Request.Context(), filter)
	if err != nil {
		s.Error(c, err)
		return
	}
	if items == nil {
		items = []*bookmarks.Item{}
	}
	for _, item := range items {
		item.Content = ""
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleItemView(c *gin.Context) {
	item, err := s.findOwnedItem(c)
	if err != nil {
		s.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Favorite    *bool   `json:"favorite"`
}

func (s *Server) handleItemUpdate(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Error(c, bookmarks.Errorf(bookmarks.EINVALID, "invalid JSON body"))
		return
	}

	upd := bookmarks.ItemUpdate{
		Title:       req.Title,
		Description: req.Description,
		Favorite:    req.Favorite,
	}
	if req.Status != nil {
		status, err := bookmarks.ParseStatus(*req.Status)
		if err != nil {
			s.Error(c, err)
			return
		}
		upd.Status = &status
	}

	item, err := s.findOwnedItem(c)
	if err != nil {
		s.Error(c, err)
		return
	}

	item, err = s.Items.UpdateItem(c.Request.Context(), item.ID, upd)
	if err != nil {
		s.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleItemDelete(c *gin.Context) {
	if err := s.Ingester.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		s.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleItemReprocess responds 200 with the processed item when processing
// finishes within the wait, and 202 with the pending item otherwise.
func (s *Server) handleItemReprocess(c *gin.Context) {
	wait := s.reprocessWait()
	if v := c.Query("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			s.Error(c, bookmarks.Errorf(bookmarks.EINVALID, "invalid wait %q", v))
			return
		}
		wait = d
	}

	item, done, err := s.Ingester.Reprocess(c.Request.Context(), userID(c), c.Param("id"), wait)
	if err != nil {
		s.Error(c, err)
		return
	}

	code := http.StatusAccepted
	if done {
		code = http.StatusOK
	}
	c.JSON(code, item)
}

// findOwnedItem returns the item named by the id path parameter.
// Items of other users are reported as not found.
func (s *Server) findOwnedItem(c *gin.Context) (*bookmarks.Item, error) {
	item, err := s.Items.FindItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if item.UserID != userID(c) {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}
	return item, nil
}

// parseItemFilter reads listing parameters from the query string.
func parseItemFilter(c *gin.Context) (bookmarks.ItemFilter, error) {
	var filter bookmarks.ItemFilter

	if v := c.Query("status"); v != "" {
		status, err := bookmarks.ParseStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if v := c.Query("type"); v != "" {
		typ, err := bookmarks.ParseContentType(v)
		if err != nil {
			return filter, err
		}
		filter.Type = &typ
	}
	if v := c.Query("topic"); v != "" {
		slug := bookmarks.Slugify(v)
		filter.Topic = &slug
	}
	if v := c.Query("favorite"); v != "" {
		fav, err := strconv.ParseBool(v)
		if err != nil {
			return filter, bookmarks.Errorf(bookmarks.EINVALID, "invalid favorite %q", v)
		}
		filter.Favorite = &fav
	}
	filter.Query = strings.TrimSpace(c.Query("q"))

	limit, err := queryInt(c, "limit", DefaultListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = min(limit, MaxListLimit)

	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

// queryInt parses a non-negative integer query parameter, returning def when
// it is missing or zero.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, bookmarks.Errorf(bookmarks.EINVALID, "invalid %s %q", name, v)
	}
	if n == 0 {
		return def, nil
	}
	return n, nil
}
