package usecase

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"kapsul/model"
	"kapsul/utils"
)

// MetadataDebounce is the quiet period after the last URL keystroke
// before the resolver is consulted.
const MetadataDebounce = 800 * time.Millisecond

// URL classification patterns. The video pattern requires the 11-char
// YouTube id; the playlist pattern takes the value of a list= query
// parameter.
var (
	videoURLPattern    = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	playlistURLPattern = regexp.MustCompile(`[?&]list=([a-zA-Z0-9_-]+)`)
	genericURLPattern  = regexp.MustCompile(`^https?://.+`)
)

// ExtractVideoID returns the YouTube video id embedded in url, or "".
func ExtractVideoID(url string) string {
	if m := videoURLPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ExtractPlaylistID returns the playlist id embedded in url, or "".
func ExtractPlaylistID(url string) string {
	if m := playlistURLPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ItemCreator is the store-side create operation the intake submits to.
type ItemCreator interface {
	CreateItem(item *model.Item) error
}

// MetadataResolver fetches descriptive metadata for recognized video and
// playlist URLs. Both methods return (nil, nil) when no metadata is
// available; the intake treats every failure as "no metadata".
type MetadataResolver interface {
	ResolveVideo(ctx context.Context, videoID string) (*model.VideoMetadata, error)
	ResolvePlaylist(ctx context.Context, playlistID string) (*model.PlaylistMetadata, error)
}

// CaptureDraft is the mutable state of the smart-capture form.
type CaptureDraft struct {
	ActiveTab   model.ItemType
	URL         string
	Title       string
	NoteContent string
	WhySaved    string
	Tags        []string
	Images      []string

	// Fetched metadata
	Thumbnail    string
	ChannelTitle string
	Description  string
	Duration     int
	VideoCount   int
}

// ValidationError reports why a draft cannot be submitted, per field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CaptureIntake turns a user-entered URL or note body into a normalized
// item record: it auto-detects the type, auto-fills metadata after a
// quiet period, manages the tag set and validates before submission.
type CaptureIntake struct {
	mu       sync.Mutex
	ownerID  string
	store    ItemCreator
	resolver MetadataResolver
	debounce *utils.Debouncer
	draft    CaptureDraft
}

func NewCaptureIntake(ownerID string, store ItemCreator, resolver MetadataResolver) *CaptureIntake {
	return &CaptureIntake{
		ownerID:  ownerID,
		store:    store,
		resolver: resolver,
		debounce: utils.NewDebouncer(MetadataDebounce),
		draft:    CaptureDraft{ActiveTab: model.ItemTypeVideo},
	}
}

// Open resets the draft for a fresh capture. Re-opening never continues
// a previous draft.
func (ci *CaptureIntake) Open(initialTab model.ItemType) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.debounce.Cancel()
	tab := initialTab
	if !tab.IsValid() {
		tab = model.ItemTypeVideo
	}
	ci.draft = CaptureDraft{ActiveTab: tab}
}

// Close abandons the draft.
func (ci *CaptureIntake) Close() {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.debounce.Cancel()
	ci.draft = CaptureDraft{ActiveTab: model.ItemTypeVideo}
}

// Draft returns a copy of the current draft state.
func (ci *CaptureIntake) Draft() CaptureDraft {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.draft
}

func (ci *CaptureIntake) SetActiveTab(tab model.ItemType) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if tab.IsValid() {
		ci.draft.ActiveTab = tab
	}
}

func (ci *CaptureIntake) SetTitle(title string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.draft.Title = title
}

func (ci *CaptureIntake) SetNoteContent(content string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.draft.NoteContent = content
}

func (ci *CaptureIntake) SetWhySaved(whySaved string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.draft.WhySaved = whySaved
}

func (ci *CaptureIntake) AddImage(image string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.draft.Images = append(ci.draft.Images, image)
}

// SetURL stores the raw value and classifies it: YouTube video, then
// YouTube playlist, then generic link. The first match switches the
// active tab; no match leaves it unchanged. Malformed URLs are accepted
// here; validation happens at submit time. A metadata fetch is scheduled
// behind the debounce window.
func (ci *CaptureIntake) SetURL(value string) {
	ci.mu.Lock()
	ci.draft.URL = value

	switch {
	case videoURLPattern.MatchString(value):
		ci.draft.ActiveTab = model.ItemTypeVideo
	case playlistURLPattern.MatchString(value):
		ci.draft.ActiveTab = model.ItemTypePlaylist
	case genericURLPattern.MatchString(value):
		ci.draft.ActiveTab = model.ItemTypeLink
	}

	url, tab := ci.draft.URL, ci.draft.ActiveTab
	ci.mu.Unlock()

	ci.debounce.Schedule(func() {
		ci.resolveMetadata(url, tab)
	})
}

// resolveMetadata fires after the quiet period. Fetched titles merge
// first-write-wins: a title the user already typed is never overwritten.
// All other metadata fields are set unconditionally. Resolver failures
// are swallowed so the capture flow stays usable without metadata.
func (ci *CaptureIntake) resolveMetadata(url string, tab model.ItemType) {
	ci.resolveMetadataCtx(context.Background(), url, tab)
}

func (ci *CaptureIntake) resolveMetadataCtx(ctx context.Context, url string, tab model.ItemType) {
	switch tab {
	case model.ItemTypeVideo:
		id := ExtractVideoID(url)
		if id == "" {
			return
		}
		details, err := ci.resolver.ResolveVideo(ctx, id)
		if err != nil || details == nil {
			return
		}

		ci.mu.Lock()
		defer ci.mu.Unlock()
		if ci.draft.URL != url {
			// The URL changed while the fetch was in flight; this
			// result is stale.
			return
		}
		if ci.draft.Title == "" {
			ci.draft.Title = details.Title
		}
		ci.draft.Thumbnail = details.Thumbnail
		ci.draft.Duration = details.Duration
		ci.draft.ChannelTitle = details.ChannelTitle
		ci.draft.Description = details.Description

	case model.ItemTypePlaylist:
		id := ExtractPlaylistID(url)
		if id == "" {
			return
		}
		details, err := ci.resolver.ResolvePlaylist(ctx, id)
		if err != nil || details == nil {
			return
		}

		ci.mu.Lock()
		defer ci.mu.Unlock()
		if ci.draft.URL != url {
			return
		}
		if ci.draft.Title == "" {
			ci.draft.Title = details.Title
		}
		ci.draft.Thumbnail = details.Thumbnail
		ci.draft.VideoCount = details.VideoCount
		ci.draft.ChannelTitle = details.ChannelTitle
		ci.draft.Description = details.Description
	}
}

// ResolveNow cancels any pending debounce and resolves metadata for the
// current draft synchronously. Server-side submits use this; interactive
// clients rely on the debounced path.
func (ci *CaptureIntake) ResolveNow(ctx context.Context) {
	ci.debounce.Cancel()

	ci.mu.Lock()
	url, tab := ci.draft.URL, ci.draft.ActiveTab
	ci.mu.Unlock()

	ci.resolveMetadataCtx(ctx, url, tab)
}

// AddTag appends a tag, enforcing uniqueness and the cap. Duplicates and
// overflow adds are silent no-ops.
func (ci *CaptureIntake) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	if len(ci.draft.Tags) >= model.MaxItemTags {
		return
	}
	for _, t := range ci.draft.Tags {
		if t == tag {
			return
		}
	}
	ci.draft.Tags = append(ci.draft.Tags, tag)
}

// RemoveTag removes a tag unconditionally.
func (ci *CaptureIntake) RemoveTag(tag string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	tags := ci.draft.Tags[:0]
	for _, t := range ci.draft.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	ci.draft.Tags = tags
}

// Validate checks the draft against its type's requirements. A nil
// return means the draft can be submitted.
func (ci *CaptureIntake) Validate() *ValidationError {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return validateDraft(&ci.draft)
}

func validateDraft(draft *CaptureDraft) *ValidationError {
	if draft.ActiveTab == model.ItemTypeNote {
		if strings.TrimSpace(draft.Title) == "" {
			return &ValidationError{Field: "title", Reason: "please enter a title for your note"}
		}
		if strings.TrimSpace(utils.StripHTML(draft.NoteContent)) == "" && len(draft.Images) == 0 {
			return &ValidationError{Field: "content", Reason: "please write some content or add images"}
		}
		return nil
	}

	if strings.TrimSpace(draft.URL) == "" {
		return &ValidationError{Field: "url", Reason: "please enter a URL for the " + string(draft.ActiveTab)}
	}
	if !genericURLPattern.MatchString(draft.URL) {
		return &ValidationError{Field: "url", Reason: "please enter a valid URL starting with http:// or https://"}
	}
	return nil
}

// BuildRecord maps the draft to a persistable item with the
// type-specific shape: notes carry sanitized content plus a recomputed
// preview; links derive their domain once, falling back to "Unknown".
func (ci *CaptureIntake) BuildRecord() *model.Item {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return buildRecord(ci.ownerID, &ci.draft)
}

func buildRecord(ownerID string, draft *CaptureDraft) *model.Item {
	item := &model.Item{
		UserID: ownerID,
		Type:   draft.ActiveTab,
		Tags:   append([]string(nil), draft.Tags...),
	}

	if draft.ActiveTab == model.ItemTypeNote {
		item.Title = draft.Title
		item.Content = utils.SanitizeContent(draft.NoteContent)
		item.Preview = utils.MakePreview(item.Content)
		item.Images = append([]string(nil), draft.Images...)
		return item
	}

	item.URL = draft.URL
	item.Title = draft.Title
	if item.Title == "" {
		item.Title = "Untitled"
	}
	item.Thumbnail = draft.Thumbnail
	item.ChannelTitle = draft.ChannelTitle
	item.Description = draft.Description
	item.WhySaved = strings.TrimSpace(draft.WhySaved)

	switch draft.ActiveTab {
	case model.ItemTypeVideo:
		item.Duration = draft.Duration
	case model.ItemTypePlaylist:
		item.VideoCount = draft.VideoCount
	case model.ItemTypeLink:
		item.Domain = utils.DeriveDomain(draft.URL)
	}

	return item
}

// Submit validates the draft, persists the built record and resets the
// draft to its initial state. On validation failure nothing is written
// and the draft is left intact for the user to fix.
func (ci *CaptureIntake) Submit(ctx context.Context) (*model.Item, error) {
	ci.mu.Lock()
	if err := validateDraft(&ci.draft); err != nil {
		ci.mu.Unlock()
		return nil, err
	}
	item := buildRecord(ci.ownerID, &ci.draft)
	ci.mu.Unlock()

	if err := ci.store.CreateItem(item); err != nil {
		return nil, err
	}

	ci.mu.Lock()
	ci.debounce.Cancel()
	ci.draft = CaptureDraft{ActiveTab: model.ItemTypeVideo}
	ci.mu.Unlock()

	utils.TrackItemOperation("capture", string(item.Type))
	return item, nil
}
