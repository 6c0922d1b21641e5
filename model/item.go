package model

import "time"

// ItemType is the kind of captured content. It is fixed at creation;
// there is no type migration.
type ItemType string

const (
	ItemTypeVideo    ItemType = "video"
	ItemTypeLink     ItemType = "link"
	ItemTypeNote     ItemType = "note"
	ItemTypePlaylist ItemType = "playlist"
)

// IsValid reports whether t is one of the four known item types.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeVideo, ItemTypeLink, ItemTypeNote, ItemTypePlaylist:
		return true
	}
	return false
}

// MaxItemTags is the soft cap on tags per item.
const MaxItemTags = 20

// Item is a single captured unit of content: a video, link, note or
// playlist saved into a user's library.
type Item struct {
	ID     string   `bson:"_id,omitempty" json:"id"`
	UserID string   `bson:"user_id" json:"user_id"`
	Type   ItemType `bson:"type" json:"type"`

	Title string `bson:"title" json:"title"`
	URL   string `bson:"url,omitempty" json:"url,omitempty"`
	// Domain is derived from URL for links at capture time (host minus
	// leading "www.") and never re-derived afterwards.
	Domain string `bson:"domain,omitempty" json:"domain,omitempty"`

	// Content is the rich-text note body (sanitized HTML); Preview is its
	// plain-text truncation. Any write to Content recomputes Preview in
	// the same mutation.
	Content string   `bson:"content,omitempty" json:"content,omitempty"`
	Preview string   `bson:"preview,omitempty" json:"preview,omitempty"`
	Images  []string `bson:"images,omitempty" json:"images,omitempty"`

	// Metadata populated from the resolver, or left blank.
	Thumbnail    string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	ChannelTitle string `bson:"channel_title,omitempty" json:"channel_title,omitempty"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	Duration     int    `bson:"duration,omitempty" json:"duration,omitempty"`
	VideoCount   int    `bson:"video_count,omitempty" json:"video_count,omitempty"`

	Tags     []string `bson:"tags,omitempty" json:"tags,omitempty"`
	WhySaved string   `bson:"why_saved,omitempty" json:"why_saved,omitempty"`

	IsPinned    bool `bson:"is_pinned" json:"is_pinned"`
	IsCompleted bool `bson:"is_completed" json:"is_completed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasTag reports whether the item already carries the given tag
// (case-sensitive match).
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
