package usecase

import (
	"testing"
	"time"

	"kapsul/model"
)

func queryFixture() []*model.Item {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*model.Item{
		{
			ID: "v1", Type: model.ItemTypeVideo, Title: "Go Concurrency Patterns",
			URL: "https://youtube.com/watch?v=abcdefghijk", ChannelTitle: "GopherCon",
			CreatedAt: base.Add(3 * time.Hour),
		},
		{
			ID: "p1", Type: model.ItemTypePlaylist, Title: "Rust Marathon",
			URL: "https://youtube.com/playlist?list=PL123", CreatedAt: base.Add(2 * time.Hour),
		},
		{
			ID: "l1", Type: model.ItemTypeLink, Title: "Effective Go",
			URL: "https://go.dev/doc/effective_go", Domain: "go.dev",
			CreatedAt: base.Add(1 * time.Hour), IsPinned: true,
		},
		{
			ID: "n1", Type: model.ItemTypeNote, Title: "Meeting notes",
			Content:   "<p>Discussed the concurrency roadmap</p>",
			CreatedAt: base,
		},
		{
			ID: "n2", Type: model.ItemTypeNote, Title: "Archived idea",
			Content: "old plan", IsCompleted: true, CreatedAt: base.Add(4 * time.Hour),
		},
	}
}

func ids(items []*model.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueryItemsViewPartition(t *testing.T) {
	items := queryFixture()

	active := QueryItems(items, QueryParams{ViewMode: ViewActive, SortOrder: SortNewest})
	for _, item := range active {
		if item.IsCompleted {
			t.Errorf("active view returned completed item %s", item.ID)
		}
	}
	if len(active) != 4 {
		t.Fatalf("active view: got %d items, want 4", len(active))
	}

	completed := QueryItems(items, QueryParams{ViewMode: ViewCompleted, SortOrder: SortNewest})
	if len(completed) != 1 || completed[0].ID != "n2" {
		t.Fatalf("completed view: got %v, want [n2]", ids(completed))
	}
}

func TestQueryItemsPlatformKeywordOverride(t *testing.T) {
	items := queryFixture()

	tests := []struct {
		name    string
		query   string
		typeF   string
		wantIDs []string
	}{
		// "youtube" maps to videos AND playlists even though no item
		// mentions the word.
		{"youtube keyword", "youtube", "", []string{"v1", "p1"}},
		// Keyword overrides the type filter pill entirely.
		{"keyword beats type filter", "note", "video", []string{"n1"}},
		{"writing synonym", "writing", "", []string{"n1"}},
		{"link keyword", "link", "", []string{"l1"}},
		// Keyword matching is exact: a phrase containing one falls back
		// to text search.
		{"phrase is not a keyword", "youtube channel", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryItems(items, QueryParams{
				SearchQuery: tt.query,
				TypeFilter:  tt.typeF,
				ViewMode:    ViewActive,
				SortOrder:   SortNewest,
			})
			if !equalIDs(ids(got), tt.wantIDs) {
				t.Errorf("got %v, want %v", ids(got), tt.wantIDs)
			}
		})
	}
}

func TestQueryItemsSearch(t *testing.T) {
	items := queryFixture()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"title match", "effective", []string{"l1"}},
		{"channel match", "gophercon", []string{"v1"}},
		{"domain match", "go.dev", []string{"l1"}},
		{"stripped note content match", "roadmap", []string{"n1"}},
		// Both terms must match somewhere in the haystack.
		{"and semantics", "concurrency patterns", []string{"v1"}},
		{"and semantics no match", "concurrency rust", []string{}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryItems(items, QueryParams{
				SearchQuery: tt.query,
				ViewMode:    ViewActive,
				SortOrder:   SortNewest,
			})
			if !equalIDs(ids(got), tt.wantIDs) {
				t.Errorf("query %q: got %v, want %v", tt.query, ids(got), tt.wantIDs)
			}
		})
	}
}

func TestQueryItemsTypeFilterOnlyWithoutQuery(t *testing.T) {
	items := queryFixture()

	got := QueryItems(items, QueryParams{TypeFilter: "note", ViewMode: ViewActive, SortOrder: SortNewest})
	if !equalIDs(ids(got), []string{"n1"}) {
		t.Errorf("type filter: got %v, want [n1]", ids(got))
	}

	// A free-text query suspends the type filter.
	got = QueryItems(items, QueryParams{SearchQuery: "effective", TypeFilter: "note", ViewMode: ViewActive, SortOrder: SortNewest})
	if !equalIDs(ids(got), []string{"l1"}) {
		t.Errorf("query with type filter: got %v, want [l1]", ids(got))
	}

	got = QueryItems(items, QueryParams{TypeFilter: "all", ViewMode: ViewActive, SortOrder: SortNewest})
	if len(got) != 4 {
		t.Errorf(`type filter "all": got %d items, want 4`, len(got))
	}
}

func TestQueryItemsSort(t *testing.T) {
	items := queryFixture()

	tests := []struct {
		name    string
		order   string
		wantIDs []string
	}{
		// l1 is pinned and leads regardless of age.
		{"newest", SortNewest, []string{"l1", "v1", "p1", "n1"}},
		{"oldest", SortOldest, []string{"l1", "n1", "p1", "v1"}},
		{"alphabetical", SortAlpha, []string{"l1", "v1", "n1", "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryItems(items, QueryParams{ViewMode: ViewActive, SortOrder: tt.order})
			if !equalIDs(ids(got), tt.wantIDs) {
				t.Errorf("sort %s: got %v, want %v", tt.order, ids(got), tt.wantIDs)
			}
		})
	}
}

func TestQueryItemsZeroCreatedAtSortsOldest(t *testing.T) {
	items := []*model.Item{
		{ID: "a", Title: "a", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "zero", Title: "zero"},
		{ID: "b", Title: "b", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := QueryItems(items, QueryParams{ViewMode: ViewActive, SortOrder: SortNewest})
	if !equalIDs(ids(got), []string{"b", "a", "zero"}) {
		t.Errorf("newest with zero time: got %v, want [b a zero]", ids(got))
	}

	got = QueryItems(items, QueryParams{ViewMode: ViewActive, SortOrder: SortOldest})
	if got[0].ID != "zero" {
		t.Errorf("oldest with zero time: got %v, want zero first", ids(got))
	}
}

func TestQueryItemsDoesNotMutateInput(t *testing.T) {
	items := queryFixture()
	before := ids(items)

	QueryItems(items, QueryParams{ViewMode: ViewActive, SortOrder: SortAlpha})

	if !equalIDs(ids(items), before) {
		t.Errorf("input order changed: got %v, want %v", ids(items), before)
	}
}

func TestQueryItemsDeterministic(t *testing.T) {
	items := queryFixture()
	params := QueryParams{SearchQuery: "go", ViewMode: ViewActive, SortOrder: SortAlpha}

	first := ids(QueryItems(items, params))
	for i := 0; i < 10; i++ {
		if got := ids(QueryItems(items, params)); !equalIDs(got, first) {
			t.Fatalf("run %d differs: got %v, want %v", i, got, first)
		}
	}
}
