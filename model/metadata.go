package model

// VideoMetadata is the descriptive metadata resolved for a single video.
type VideoMetadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	ChannelTitle string   `json:"channel_title"`
	Duration     int      `json:"duration"` // seconds
	Tags         []string `json:"tags,omitempty"`
}

// PlaylistMetadata is the descriptive metadata resolved for a playlist.
type PlaylistMetadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Thumbnail    string   `json:"thumbnail"`
	ChannelTitle string   `json:"channel_title"`
	VideoCount   int      `json:"video_count"`
	Tags         []string `json:"tags,omitempty"`
}
