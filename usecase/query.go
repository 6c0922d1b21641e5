package usecase

import (
	"sort"
	"strings"

	"kapsul/model"
	"kapsul/utils"
)

// View modes for the library.
const (
	ViewActive    = "active"
	ViewCompleted = "completed"
)

// Sort orders for the library.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortAlpha  = "a-z"
)

// QueryParams are the UI-selected predicates applied to the in-memory
// item collection.
type QueryParams struct {
	SearchQuery string
	TypeFilter  string // "all" or a model.ItemType value
	ViewMode    string // ViewActive or ViewCompleted
	SortOrder   string // SortNewest, SortOldest or SortAlpha
}

// platformKeywords maps reserved search terms directly to item types.
// A query equal to one of these keys overrides both free-text matching
// and the manual type filter. That precedence is intentional and must
// not change: searching "note" always shows every note, even when a
// type-filter pill is set to something else.
var platformKeywords = map[string][]model.ItemType{
	"youtube":  {model.ItemTypeVideo, model.ItemTypePlaylist},
	"web":      {model.ItemTypeLink},
	"article":  {model.ItemTypeLink},
	"link":     {model.ItemTypeLink},
	"note":     {model.ItemTypeNote},
	"text":     {model.ItemTypeNote},
	"writing":  {model.ItemTypeNote},
	"video":    {model.ItemTypeVideo},
	"playlist": {model.ItemTypePlaylist},
}

// QueryItems derives the visible, ordered subset of items for the given
// parameters. It is a pure function: the input slice is never mutated
// and the same input always yields the same output order.
//
// Pipeline: view partition, then search (platform keyword override or
// AND-semantics multi-field match), then type filter (only without a
// search query), then pinned-first stable sort.
func QueryItems(items []*model.Item, params QueryParams) []*model.Item {
	result := partitionByView(items, params.ViewMode)

	query := strings.ToLower(strings.TrimSpace(params.SearchQuery))
	if query != "" {
		if types, ok := platformKeywords[query]; ok {
			result = filterByTypes(result, types)
		} else {
			result = searchItems(result, query)
		}
	} else if params.TypeFilter != "" && params.TypeFilter != "all" {
		result = filterByTypes(result, []model.ItemType{model.ItemType(params.TypeFilter)})
	}

	sortItems(result, params.SortOrder)
	return result
}

func partitionByView(items []*model.Item, viewMode string) []*model.Item {
	wantCompleted := viewMode == ViewCompleted
	result := make([]*model.Item, 0, len(items))
	for _, item := range items {
		if item.IsCompleted == wantCompleted {
			result = append(result, item)
		}
	}
	return result
}

func filterByTypes(items []*model.Item, types []model.ItemType) []*model.Item {
	result := make([]*model.Item, 0, len(items))
	for _, item := range items {
		for _, t := range types {
			if item.Type == t {
				result = append(result, item)
				break
			}
		}
	}
	return result
}

// searchItems keeps the items whose searchable haystack contains every
// whitespace-delimited term of the query (AND semantics; OR is not
// supported).
func searchItems(items []*model.Item, query string) []*model.Item {
	terms := strings.Fields(query)

	result := make([]*model.Item, 0, len(items))
	for _, item := range items {
		haystack := searchHaystack(item)
		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, item)
		}
	}
	return result
}

// searchHaystack concatenates the item's searchable fields into one
// lower-cased string. Missing fields are skipped, not treated as match
// failures. Note content is searched as stripped plain text.
func searchHaystack(item *model.Item) string {
	fields := []string{
		item.Title,
		item.Description,
		item.URL,
		item.ChannelTitle,
		item.Domain,
	}
	fields = append(fields, item.Tags...)

	if item.Type == model.ItemTypeNote && item.Content != "" {
		fields = append(fields, utils.StripHTML(item.Content))
	}

	var sb strings.Builder
	for _, f := range fields {
		if f == "" {
			continue
		}
		sb.WriteString(strings.ToLower(f))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// sortItems orders items in place: pinned before unpinned regardless of
// every other key, then by the requested order. Items with a zero
// created_at sort as the oldest possible value. An unknown sort order is
// a stable no-op.
func sortItems(items []*model.Item, sortOrder string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}

		switch sortOrder {
		case SortNewest:
			return a.CreatedAt.After(b.CreatedAt)
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortAlpha:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return false
		}
	})
}
