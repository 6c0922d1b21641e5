package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"kapsul/model"
)

type fakeItemStore struct {
	created []*model.Item
	fail    bool
}

func (s *fakeItemStore) CreateItem(item *model.Item) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.created = append(s.created, item)
	return nil
}

type fakeResolver struct {
	video    *model.VideoMetadata
	playlist *model.PlaylistMetadata
	err      error
	calls    int
}

func (r *fakeResolver) ResolveVideo(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	r.calls++
	return r.video, r.err
}

func (r *fakeResolver) ResolvePlaylist(ctx context.Context, playlistID string) (*model.PlaylistMetadata, error) {
	r.calls++
	return r.playlist, r.err
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=short", ""},
		{"https://example.com/page", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.url); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSetURLClassification(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantTab model.ItemType
	}{
		{"video url", "https://youtube.com/watch?v=dQw4w9WgXcQ", model.ItemTypeVideo},
		{"short video url", "https://youtu.be/dQw4w9WgXcQ", model.ItemTypeVideo},
		{"playlist url", "https://youtube.com/playlist?list=PLabc123", model.ItemTypePlaylist},
		// A watch URL with both v= and list= classifies as video: the
		// video pattern is checked first.
		{"video in playlist", "https://youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123", model.ItemTypeVideo},
		{"generic link", "https://example.com/article", model.ItemTypeLink},
		{"http link", "http://example.com", model.ItemTypeLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := NewCaptureIntake("u1", &fakeItemStore{}, &fakeResolver{})
			intake.Open(model.ItemTypeNote)
			intake.SetURL(tt.url)
			if got := intake.Draft().ActiveTab; got != tt.wantTab {
				t.Errorf("tab = %s, want %s", got, tt.wantTab)
			}
			intake.Close()
		})
	}
}

func TestSetURLNoMatchKeepsTab(t *testing.T) {
	intake := NewCaptureIntake("u1", &fakeItemStore{}, &fakeResolver{})
	intake.Open(model.ItemTypeNote)
	intake.SetURL("not a url at all")
	defer intake.Close()

	if got := intake.Draft().ActiveTab; got != model.ItemTypeNote {
		t.Errorf("tab = %s, want note", got)
	}
}

func TestResolveMetadataTitleFirstWriteWins(t *testing.T) {
	resolver := &fakeResolver{video: &model.VideoMetadata{
		Title:        "Fetched Title",
		Thumbnail:    "https://img.example/thumb.jpg",
		ChannelTitle: "Channel",
		Duration:     93,
	}}
	url := "https://youtube.com/watch?v=dQw4w9WgXcQ"

	// User typed a title before the fetch completed: keep it.
	intake := NewCaptureIntake("u1", &fakeItemStore{}, resolver)
	intake.Open(model.ItemTypeVideo)
	intake.SetTitle("My Title")
	intake.draft.URL = url
	intake.resolveMetadata(url, model.ItemTypeVideo)

	draft := intake.Draft()
	if draft.Title != "My Title" {
		t.Errorf("title = %q, want user title preserved", draft.Title)
	}
	if draft.Thumbnail != "https://img.example/thumb.jpg" || draft.Duration != 93 {
		t.Errorf("metadata fields not applied: %+v", draft)
	}

	// Empty title takes the fetched one.
	intake.Open(model.ItemTypeVideo)
	intake.draft.URL = url
	intake.resolveMetadata(url, model.ItemTypeVideo)
	if got := intake.Draft().Title; got != "Fetched Title" {
		t.Errorf("title = %q, want fetched title", got)
	}
}

func TestResolveMetadataStaleURLDiscarded(t *testing.T) {
	resolver := &fakeResolver{video: &model.VideoMetadata{Title: "Stale", Thumbnail: "x"}}
	intake := NewCaptureIntake("u1", &fakeItemStore{}, resolver)
	intake.Open(model.ItemTypeVideo)
	intake.draft.URL = "https://youtube.com/watch?v=AAAAAAAAAAA"

	// Resolve fires for a URL the draft has since moved past.
	intake.resolveMetadata("https://youtube.com/watch?v=BBBBBBBBBBB", model.ItemTypeVideo)

	draft := intake.Draft()
	if draft.Title != "" || draft.Thumbnail != "" {
		t.Errorf("stale metadata applied: %+v", draft)
	}
}

func TestResolveMetadataFailureSwallowed(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("network down")}
	intake := NewCaptureIntake("u1", &fakeItemStore{}, resolver)
	intake.Open(model.ItemTypeVideo)
	url := "https://youtube.com/watch?v=dQw4w9WgXcQ"
	intake.draft.URL = url

	intake.resolveMetadata(url, model.ItemTypeVideo)

	if draft := intake.Draft(); draft.Title != "" {
		t.Errorf("failed resolve mutated draft: %+v", draft)
	}
}

func TestAddTagRules(t *testing.T) {
	intake := NewCaptureIntake("u1", &fakeItemStore{}, &fakeResolver{})
	intake.Open(model.ItemTypeNote)

	intake.AddTag("  go  ")
	intake.AddTag("go") // duplicate
	intake.AddTag("")   // empty
	if got := intake.Draft().Tags; len(got) != 1 || got[0] != "go" {
		t.Fatalf("tags = %v, want [go]", got)
	}

	for i := 0; i < model.MaxItemTags+5; i++ {
		intake.AddTag(fmt.Sprintf("tag%d", i))
	}
	if got := len(intake.Draft().Tags); got != model.MaxItemTags {
		t.Errorf("tag count = %d, want cap %d", got, model.MaxItemTags)
	}

	intake.RemoveTag("go")
	intake.RemoveTag("never-added") // no-op
	for _, tag := range intake.Draft().Tags {
		if tag == "go" {
			t.Error("removed tag still present")
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*CaptureIntake)
		wantField string
	}{
		{"note without title", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeNote)
			ci.SetNoteContent("body")
		}, "title"},
		{"note with only html content", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeNote)
			ci.SetTitle("t")
			ci.SetNoteContent("<p>   </p>")
		}, "content"},
		{"note with images only", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeNote)
			ci.SetTitle("t")
			ci.AddImage("data:image/png;base64,xyz")
		}, ""},
		{"video without url", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeVideo)
		}, "url"},
		{"link with bad scheme", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeLink)
			ci.draft.URL = "ftp://example.com"
		}, "url"},
		{"valid link", func(ci *CaptureIntake) {
			ci.Open(model.ItemTypeLink)
			ci.draft.URL = "https://example.com"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := NewCaptureIntake("u1", &fakeItemStore{}, &fakeResolver{})
			tt.setup(intake)
			err := intake.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
				return
			}
			if err == nil || err.Field != tt.wantField {
				t.Errorf("got %v, want error on field %q", err, tt.wantField)
			}
		})
	}
}

func TestSubmitBuildsRecordAndResets(t *testing.T) {
	store := &fakeItemStore{}
	intake := NewCaptureIntake("u1", store, &fakeResolver{})

	intake.Open(model.ItemTypeLink)
	intake.draft.URL = "https://www.go.dev/blog"
	intake.AddTag("go")
	ctx := context.Background()

	item, err := intake.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled default", item.Title)
	}
	if item.Domain != "go.dev" {
		t.Errorf("domain = %q, want go.dev", item.Domain)
	}
	if len(store.created) != 1 {
		t.Fatalf("store received %d items, want 1", len(store.created))
	}

	// Draft reset to the initial state.
	draft := intake.Draft()
	if draft.URL != "" || len(draft.Tags) != 0 || draft.ActiveTab != model.ItemTypeVideo {
		t.Errorf("draft not reset: %+v", draft)
	}
}

func TestSubmitNoteSanitizesAndPreviews(t *testing.T) {
	store := &fakeItemStore{}
	intake := NewCaptureIntake("u1", store, &fakeResolver{})

	intake.Open(model.ItemTypeNote)
	intake.SetTitle("Notes")
	intake.SetNoteContent("<p>hello</p><script>alert(1)</script>")

	item, err := intake.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.Content == "" || item.Preview == "" {
		t.Fatalf("content/preview not set: %+v", item)
	}
	for _, s := range []string{item.Content, item.Preview} {
		if strings.Contains(s, "<script") || strings.Contains(s, "alert(1)") {
			t.Errorf("script survived sanitization: %q", s)
		}
	}
}

func TestSubmitValidationFailureLeavesDraft(t *testing.T) {
	store := &fakeItemStore{}
	intake := NewCaptureIntake("u1", store, &fakeResolver{})
	intake.Open(model.ItemTypeVideo)

	if _, err := intake.Submit(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.created) != 0 {
		t.Error("invalid draft reached the store")
	}
	if intake.Draft().ActiveTab != model.ItemTypeVideo {
		t.Error("draft reset on validation failure")
	}
}
