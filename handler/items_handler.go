package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"kapsul/model"
	"kapsul/repository"
	"kapsul/usecase"
	"kapsul/utils"
)

type ItemsHandler struct {
	Items     *usecase.ItemsService
	ItemsRepo *repository.ItemsRepo
	Resolver  usecase.MetadataResolver
}

func NewItemsHandler(items *usecase.ItemsService, repo *repository.ItemsRepo, resolver usecase.MetadataResolver) *ItemsHandler {
	return &ItemsHandler{Items: items, ItemsRepo: repo, Resolver: resolver}
}

// GetLibrary runs the query engine over the user's snapshot.
func (h *ItemsHandler) GetLibrary(c *gin.Context) {
	userID := c.GetString("user_id")

	params := usecase.QueryParams{
		SearchQuery: c.Query("q"),
		ViewMode:    c.DefaultQuery("view", usecase.ViewActive),
		SortOrder:   c.DefaultQuery("sort", usecase.SortNewest),
	}
	if typeFilter := c.Query("type"); typeFilter != "" {
		if typeFilter != "all" && !model.ItemType(typeFilter).IsValid() {
			utils.BadRequest(c, "Invalid item type")
			return
		}
		params.TypeFilter = typeFilter
	}

	items, err := h.Items.GetLibrary(c.Request.Context(), userID, params)
	if err != nil {
		utils.InternalError(c, "Failed to load library")
		return
	}

	utils.Success(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

type captureRequest struct {
	Type     string   `json:"type"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	WhySaved string   `json:"why_saved"`
	Tags     []string `json:"tags"`
	Images   []string `json:"images"`
}

// CaptureItem is the server-side submit path: classification, inline
// metadata resolution, validation and persistence in one request.
func (h *ItemsHandler) CaptureItem(c *gin.Context) {
	userID := c.GetString("user_id")

	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	intake := usecase.NewCaptureIntake(userID, h.ItemsRepo, h.Resolver)
	intake.Open(model.ItemType(req.Type))
	intake.SetTitle(req.Title)
	intake.SetNoteContent(req.Content)
	intake.SetWhySaved(req.WhySaved)
	for _, tag := range req.Tags {
		intake.AddTag(tag)
	}
	for _, image := range req.Images {
		intake.AddImage(image)
	}
	if req.URL != "" {
		intake.SetURL(req.URL)
		intake.ResolveNow(c.Request.Context())
	}

	item, err := intake.Submit(c.Request.Context())
	if err != nil {
		if verr, ok := err.(*usecase.ValidationError); ok {
			utils.BadRequest(c, verr.Reason)
			return
		}
		utils.InternalError(c, "Failed to save item")
		return
	}

	utils.Created(c, gin.H{
		"message": "Item saved successfully",
		"item":    item,
	})
}

func (h *ItemsHandler) GetItem(c *gin.Context) {
	item, err := h.Items.GetItem(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		utils.NotFound(c, "Item not found")
		return
	}
	utils.Success(c, gin.H{"item": item})
}

type updateItemRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	WhySaved string   `json:"why_saved"`
	Tags     []string `json:"tags"`
}

// UpdateItem edits a persisted item. Note edits recompute the preview in
// the same mutation; other types only carry the why-saved annotation.
func (h *ItemsHandler) UpdateItem(c *gin.Context) {
	itemID := c.Param("id")
	userID := c.GetString("user_id")

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	item, err := h.Items.GetItem(c.Request.Context(), itemID, userID)
	if err != nil {
		utils.NotFound(c, "Item not found")
		return
	}

	if item.Type == model.ItemTypeNote {
		err = h.Items.UpdateNote(c.Request.Context(), itemID, userID, req.Title, req.Content, req.Tags)
	} else {
		err = h.Items.UpdateWhySaved(c.Request.Context(), itemID, userID, req.WhySaved)
	}
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Success(c, gin.H{"message": "Item updated successfully"})
}

func (h *ItemsHandler) DeleteItem(c *gin.Context) {
	if err := h.Items.DeleteItem(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		utils.NotFound(c, "Item not found")
		return
	}
	utils.Success(c, gin.H{"message": "Item deleted successfully"})
}

func (h *ItemsHandler) TogglePin(c *gin.Context) {
	if err := h.Items.TogglePin(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		utils.NotFound(c, "Item not found")
		return
	}
	utils.Success(c, gin.H{"message": "Item pin status toggled successfully"})
}

func (h *ItemsHandler) SetCompleted(c *gin.Context) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.Items.SetCompleted(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Completed); err != nil {
		utils.NotFound(c, "Item not found")
		return
	}
	utils.Success(c, gin.H{"message": "Item status updated successfully"})
}

func (h *ItemsHandler) AddTag(c *gin.Context) {
	var req struct {
		Tag string `json:"tag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.Items.AddTag(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req.Tag); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, gin.H{"message": "Tag added successfully"})
}

func (h *ItemsHandler) RemoveTag(c *gin.Context) {
	if err := h.Items.RemoveTag(c.Request.Context(), c.Param("id"), c.GetString("user_id"), c.Param("tag")); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, gin.H{"message": "Tag removed successfully"})
}

func (h *ItemsHandler) GetTags(c *gin.Context) {
	tags, err := h.Items.GetUserTags(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch tags")
		return
	}
	utils.Success(c, gin.H{"tags": tags})
}

func (h *ItemsHandler) GetSuggestions(c *gin.Context) {
	suggestions, err := h.Items.GetSearchSuggestions(c.Request.Context(), c.GetString("user_id"), c.Query("q"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.Success(c, gin.H{"suggestions": suggestions})
}

type bulkDeleteRequest struct {
	IDs       []string `json:"ids" binding:"required"`
	Confirmed bool     `json:"confirmed"`
}

// BulkDelete removes every listed item. The confirmation flag is the
// HTTP form of the client-side yes/no gate; an unconfirmed request
// deletes nothing.
func (h *ItemsHandler) BulkDelete(c *gin.Context) {
	userID := c.GetString("user_id")

	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	selection := usecase.NewSelectionController()
	for _, id := range req.IDs {
		selection.Toggle(id)
	}

	deleted, err := selection.BulkDelete(userID, h.ItemsRepo, func(int) bool {
		return req.Confirmed
	})
	if err != nil {
		utils.Success(c, gin.H{
			"message": err.Error(),
			"deleted": deleted,
		})
		return
	}

	utils.Success(c, gin.H{
		"message": fmt.Sprintf("%d items deleted", deleted),
		"deleted": deleted,
	})
}

type bulkStatusRequest struct {
	IDs  []string `json:"ids" binding:"required"`
	View string   `json:"view" binding:"required"`
}

// BulkSetStatus sets completion on every listed item to the opposite of
// the caller's view mode.
func (h *ItemsHandler) BulkSetStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	selection := usecase.NewSelectionController()
	for _, id := range req.IDs {
		selection.Toggle(id)
	}

	updated, err := selection.BulkSetStatus(userID, req.View, h.ItemsRepo)
	if err != nil {
		utils.Success(c, gin.H{
			"message": err.Error(),
			"updated": updated,
		})
		return
	}

	utils.Success(c, gin.H{
		"message": fmt.Sprintf("%d items updated", updated),
		"updated": updated,
	})
}

// Export streams the user's full library as a downloadable JSON backup.
func (h *ItemsHandler) Export(c *gin.Context) {
	data, err := h.Items.Export(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to export items")
		return
	}

	filename := fmt.Sprintf("kapsul-backup-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "application/json", data)
}

// Stream pushes library snapshots over SSE: one event for the initial
// state, then one per store change. Last snapshot wins; there is no
// event queue to fall behind on.
func (h *ItemsHandler) Stream(c *gin.Context) {
	userID := c.GetString("user_id")

	var filter repository.ItemFilter
	switch c.Query("view") {
	case usecase.ViewCompleted:
		completed := true
		filter.IsCompleted = &completed
	case usecase.ViewActive:
		completed := false
		filter.IsCompleted = &completed
	}

	snapshots := make(chan []*model.Item, 1)
	cancel, err := h.ItemsRepo.Subscribe(c.Request.Context(), userID, filter, func(items []*model.Item) {
		// Drop the stale snapshot if the client is behind.
		select {
		case snapshots <- items:
		default:
			select {
			case <-snapshots:
			default:
			}
			snapshots <- items
		}
	})
	if err != nil {
		utils.InternalError(c, "Failed to open item stream")
		return
	}
	defer cancel()

	utils.ActiveSubscriptions.Inc()
	defer utils.ActiveSubscriptions.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case items := <-snapshots:
			c.SSEvent("snapshot", gin.H{
				"items": items,
				"count": len(items),
			})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
