package usecase

import (
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"kapsul/logger"
	"kapsul/model"
	"kapsul/utils"
)

// AutosaveDebounce is the quiet period after the last edit before an
// in-progress note is persisted.
const AutosaveDebounce = 1000 * time.Millisecond

// ItemUpdater is the store-side partial-update operation.
type ItemUpdater interface {
	UpdateItem(itemID string, userID string, fields bson.M) error
}

// NoteAutosave debounces persistence of in-progress note edits. It keeps
// a local draft of title, content and tags distinct from the persisted
// item, writes only when the draft differs from the last-persisted
// snapshot, and flushes synchronously on close so no edit is lost to a
// debounce window shorter than the time-to-close.
//
// Concurrent edits from other sessions are not merged; the last local
// persist wins.
type NoteAutosave struct {
	mu       sync.Mutex
	itemID   string
	userID   string
	store    ItemUpdater
	debounce *utils.Debouncer

	title   string
	content string
	tags    []string

	lastTitle   string
	lastContent string
	lastTags    []string
}

// NewNoteAutosave starts an autosave session seeded from the persisted
// item.
func NewNoteAutosave(item *model.Item, store ItemUpdater) *NoteAutosave {
	return &NoteAutosave{
		itemID:      item.ID,
		userID:      item.UserID,
		store:       store,
		debounce:    utils.NewDebouncer(AutosaveDebounce),
		title:       item.Title,
		content:     item.Content,
		tags:        append([]string(nil), item.Tags...),
		lastTitle:   item.Title,
		lastContent: item.Content,
		lastTags:    append([]string(nil), item.Tags...),
	}
}

func (a *NoteAutosave) SetTitle(title string) {
	a.mu.Lock()
	a.title = title
	a.mu.Unlock()
	a.schedule()
}

func (a *NoteAutosave) SetContent(content string) {
	a.mu.Lock()
	a.content = content
	a.mu.Unlock()
	a.schedule()
}

func (a *NoteAutosave) SetTags(tags []string) {
	a.mu.Lock()
	a.tags = append([]string(nil), tags...)
	a.mu.Unlock()
	a.schedule()
}

func (a *NoteAutosave) schedule() {
	a.debounce.Schedule(func() {
		if err := a.Flush(); err != nil {
			logger.L.Warn("note autosave failed",
				logger.String("item_id", a.itemID), logger.Error(err))
		}
	})
}

// Flush persists the draft if it differs from the last-persisted
// snapshot. The preview is recomputed in the same mutation as the
// content write, and the snapshot advances only after a successful
// persist.
func (a *NoteAutosave) Flush() error {
	a.mu.Lock()

	if a.title == a.lastTitle && a.content == a.lastContent && slices.Equal(a.tags, a.lastTags) {
		a.mu.Unlock()
		return nil
	}

	title := a.title
	rawContent := a.content
	content := utils.SanitizeContent(rawContent)
	tags := append([]string(nil), a.tags...)
	a.mu.Unlock()

	err := a.store.UpdateItem(a.itemID, a.userID, bson.M{
		"title":   title,
		"content": content,
		"preview": utils.MakePreview(content),
		"tags":    tags,
	})
	if err != nil {
		return err
	}

	// Advance to the values that were actually written, not the current
	// draft: an edit made while the store call was in flight must stay
	// dirty for the next flush.
	a.mu.Lock()
	a.lastTitle = title
	a.lastContent = rawContent
	a.lastTags = tags
	a.mu.Unlock()

	utils.TrackItemOperation("autosave", string(model.ItemTypeNote))
	return nil
}

// Close cancels the pending timer, flushes any dirty state synchronously
// and only then invokes the close callback.
func (a *NoteAutosave) Close(onClose func()) error {
	a.debounce.Cancel()
	err := a.Flush()
	if onClose != nil {
		onClose()
	}
	return err
}
