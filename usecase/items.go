package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"kapsul/model"
	"kapsul/repository"
	"kapsul/utils"
)

type ItemsService struct {
	ItemsRepo *repository.ItemsRepo
}

// GetLibrary loads the user's snapshot and derives the visible ordered
// subset for the given query parameters.
func (svc *ItemsService) GetLibrary(ctx context.Context, userID string, params QueryParams) ([]*model.Item, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	items, err := svc.ItemsRepo.GetUserItems(userID, repository.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	return QueryItems(items, params), nil
}

func (svc *ItemsService) GetItem(ctx context.Context, itemID, userID string) (*model.Item, error) {
	return svc.ItemsRepo.GetItem(itemID, userID)
}

// UpdateNote persists edited note fields. The preview is recomputed from
// the sanitized content in the same mutation; content and preview are
// never saved out of sync.
func (svc *ItemsService) UpdateNote(ctx context.Context, itemID, userID, title, content string, tags []string) error {
	item, err := svc.ItemsRepo.GetItem(itemID, userID)
	if err != nil {
		return err
	}
	if item.Type != model.ItemTypeNote {
		return errors.New("item is not a note")
	}
	if strings.TrimSpace(title) == "" {
		return errors.New("note title is required")
	}
	if err := validateTags(tags); err != nil {
		return err
	}

	content = utils.SanitizeContent(content)
	utils.TrackItemOperation("update", string(model.ItemTypeNote))
	return svc.ItemsRepo.UpdateItem(itemID, userID, bson.M{
		"title":   title,
		"content": content,
		"preview": utils.MakePreview(content),
		"tags":    tags,
	})
}

// UpdateWhySaved edits the free-text annotation on a non-note item.
func (svc *ItemsService) UpdateWhySaved(ctx context.Context, itemID, userID, whySaved string) error {
	item, err := svc.ItemsRepo.GetItem(itemID, userID)
	if err != nil {
		return err
	}
	if item.Type == model.ItemTypeNote {
		return errors.New("notes have no why-saved annotation")
	}
	return svc.ItemsRepo.UpdateItem(itemID, userID, bson.M{
		"why_saved": strings.TrimSpace(whySaved),
	})
}

func (svc *ItemsService) TogglePin(ctx context.Context, itemID, userID string) error {
	utils.TrackItemOperation("pin", "")
	return svc.ItemsRepo.TogglePin(itemID, userID)
}

func (svc *ItemsService) SetCompleted(ctx context.Context, itemID, userID string, completed bool) error {
	utils.TrackItemOperation("complete", "")
	return svc.ItemsRepo.SetCompleted(itemID, userID, completed)
}

func (svc *ItemsService) DeleteItem(ctx context.Context, itemID, userID string) error {
	utils.TrackItemOperation("delete", "")
	return svc.ItemsRepo.DeleteItem(itemID, userID)
}

// AddTag appends a tag to a persisted item, enforcing uniqueness and the
// tag cap.
func (svc *ItemsService) AddTag(ctx context.Context, itemID, userID, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return errors.New("tag is required")
	}

	item, err := svc.ItemsRepo.GetItem(itemID, userID)
	if err != nil {
		return err
	}
	if item.HasTag(tag) {
		return nil
	}
	if len(item.Tags) >= model.MaxItemTags {
		return fmt.Errorf("maximum %d tags allowed", model.MaxItemTags)
	}

	return svc.ItemsRepo.UpdateItem(itemID, userID, bson.M{
		"tags": append(item.Tags, tag),
	})
}

// RemoveTag removes a tag from a persisted item. Removing an absent tag
// is a no-op.
func (svc *ItemsService) RemoveTag(ctx context.Context, itemID, userID, tag string) error {
	item, err := svc.ItemsRepo.GetItem(itemID, userID)
	if err != nil {
		return err
	}
	if !item.HasTag(tag) {
		return nil
	}

	tags := make([]string, 0, len(item.Tags))
	for _, t := range item.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	return svc.ItemsRepo.UpdateItem(itemID, userID, bson.M{"tags": tags})
}

// GetUserTags returns the distinct tags across a user's items.
func (svc *ItemsService) GetUserTags(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	return svc.ItemsRepo.GetAllTags(userID)
}

// GetSearchSuggestions returns item titles and tags starting with the
// given prefix, for the search palette.
func (svc *ItemsService) GetSearchSuggestions(ctx context.Context, userID, prefix string) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, errors.New("search prefix is required")
	}

	items, err := svc.ItemsRepo.GetUserItems(userID, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var suggestions []string
	add := func(s string) {
		if s == "" || !strings.HasPrefix(strings.ToLower(s), prefix) {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		suggestions = append(suggestions, s)
	}

	for _, item := range items {
		add(item.Title)
		for _, tag := range item.Tags {
			add(tag)
		}
	}

	sort.Strings(suggestions)
	return suggestions, nil
}

// Export marshals the user's full raw item records as pretty-printed
// JSON for download.
func (svc *ItemsService) Export(ctx context.Context, userID string) ([]byte, error) {
	items, err := svc.ItemsRepo.GetUserItems(userID, repository.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items for export: %w", err)
	}
	if items == nil {
		items = []*model.Item{}
	}
	return json.MarshalIndent(items, "", "  ")
}

// LibraryStats summarizes a user's library for the stats endpoint.
type LibraryStats struct {
	TotalItems int                    `json:"total_items"`
	ByType     map[model.ItemType]int `json:"by_type"`
	Pinned     int                    `json:"pinned"`
	Completed  int                    `json:"completed"`
	TagCount   int                    `json:"tag_count"`
}

func (svc *ItemsService) GetLibraryStats(ctx context.Context, userID string) (*LibraryStats, error) {
	items, err := svc.ItemsRepo.GetUserItems(userID, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}

	byType, err := svc.ItemsRepo.CountItemsByType(userID)
	if err != nil {
		return nil, err
	}

	tags, err := svc.ItemsRepo.GetAllTags(userID)
	if err != nil {
		return nil, err
	}

	stats := &LibraryStats{
		TotalItems: len(items),
		ByType:     byType,
		TagCount:   len(tags),
	}
	for _, item := range items {
		if item.IsPinned {
			stats.Pinned++
		}
		if item.IsCompleted {
			stats.Completed++
		}
	}
	return stats, nil
}

func validateTags(tags []string) error {
	if len(tags) > model.MaxItemTags {
		return fmt.Errorf("maximum %d tags allowed", model.MaxItemTags)
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			return fmt.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}
