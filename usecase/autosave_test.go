package usecase

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"kapsul/model"
)

type fakeUpdater struct {
	updates []bson.M
	fail    bool
}

func (u *fakeUpdater) UpdateItem(itemID, userID string, fields bson.M) error {
	if u.fail {
		return errors.New("write failed")
	}
	u.updates = append(u.updates, fields)
	return nil
}

func noteFixture() *model.Item {
	return &model.Item{
		ID:      "n1",
		UserID:  "u1",
		Type:    model.ItemTypeNote,
		Title:   "Draft",
		Content: "<p>original</p>",
		Tags:    []string{"go"},
	}
}

func TestFlushSkipsCleanDraft(t *testing.T) {
	store := &fakeUpdater{}
	a := NewNoteAutosave(noteFixture(), store)

	if err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("clean draft persisted %d times, want 0", len(store.updates))
	}
}

func TestFlushPersistsDirtyDraftWithPreview(t *testing.T) {
	store := &fakeUpdater{}
	a := NewNoteAutosave(noteFixture(), store)

	a.content = "<p>rewritten body</p>"
	if err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(store.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(store.updates))
	}
	update := store.updates[0]
	if _, ok := update["preview"]; !ok {
		t.Error("update missing recomputed preview")
	}
	if preview := update["preview"].(string); !strings.Contains(preview, "rewritten body") {
		t.Errorf("preview = %q, want plain text of the new content", preview)
	}

	// A second flush with no further edits is a no-op.
	if err := a.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if len(store.updates) != 1 {
		t.Errorf("clean re-flush persisted again: %d updates", len(store.updates))
	}
}

func TestFlushTagChangeOnly(t *testing.T) {
	store := &fakeUpdater{}
	a := NewNoteAutosave(noteFixture(), store)

	a.SetTags([]string{"go", "notes"})
	a.debounce.Cancel()

	if err := a.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(store.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(store.updates))
	}
}

func TestFlushFailureKeepsDraftDirty(t *testing.T) {
	store := &fakeUpdater{fail: true}
	a := NewNoteAutosave(noteFixture(), store)

	a.title = "New title"
	if err := a.Flush(); err == nil {
		t.Fatal("expected flush error")
	}

	// The snapshot must not advance, so the retry persists.
	store.fail = false
	if err := a.Flush(); err != nil {
		t.Fatalf("retry Flush: %v", err)
	}
	if len(store.updates) != 1 {
		t.Fatalf("retry did not persist: %d updates", len(store.updates))
	}
	if store.updates[0]["title"] != "New title" {
		t.Errorf("persisted title = %v", store.updates[0]["title"])
	}
}

type blockingUpdater struct {
	fakeUpdater
	entered chan struct{}
	release chan struct{}
}

func (u *blockingUpdater) UpdateItem(itemID, userID string, fields bson.M) error {
	u.entered <- struct{}{}
	<-u.release
	return u.fakeUpdater.UpdateItem(itemID, userID, fields)
}

func TestEditDuringInFlightFlushStaysDirty(t *testing.T) {
	// Buffered so the flush inside Close does not block once release
	// is closed.
	store := &blockingUpdater{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	a := NewNoteAutosave(noteFixture(), store)

	a.SetContent("<p>first edit</p>")
	a.debounce.Cancel()

	done := make(chan error, 1)
	go func() { done <- a.Flush() }()

	// The store write for the first edit is in flight; a second edit
	// lands meanwhile.
	<-store.entered
	a.SetContent("<p>second edit</p>")
	a.debounce.Cancel()
	close(store.release)

	if err := <-done; err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Closing must still see the second edit as dirty and persist it.
	if err := a.Close(nil); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(store.updates) != 2 {
		t.Fatalf("got %d updates, want 2: %v", len(store.updates), store.updates)
	}
	if got := store.updates[1]["content"].(string); !strings.Contains(got, "second edit") {
		t.Errorf("final persisted content = %q, want the in-flight edit", got)
	}
}

func TestCloseFlushesBeforeCallback(t *testing.T) {
	store := &fakeUpdater{}
	a := NewNoteAutosave(noteFixture(), store)

	a.SetContent("<p>last-second edit</p>")
	a.debounce.Cancel() // simulate closing inside the debounce window

	var updatesAtCallback int
	err := a.Close(func() {
		updatesAtCallback = len(store.updates)
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if updatesAtCallback != 1 {
		t.Errorf("callback saw %d updates, want the flush to land first", updatesAtCallback)
	}
}
