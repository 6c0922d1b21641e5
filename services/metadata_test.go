package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT15M33S", 15*60 + 33},
		{"PT1H2M3S", 3600 + 120 + 3},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := ParseISODuration(tt.in); got != tt.want {
			t.Errorf("ParseISODuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func fakeYouTubeAPI(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("request missing api key")
		}
		w.WriteHeader(status)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func newTestResolver(baseURL string) *YouTubeResolver {
	return &YouTubeResolver{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 2 * time.Second},
		CacheTTL: time.Minute,
	}
}

func TestResolveVideo(t *testing.T) {
	srv := fakeYouTubeAPI(t, `{
		"items": [{
			"snippet": {
				"title": "A Video",
				"description": "About things",
				"channelTitle": "A Channel",
				"tags": ["go"],
				"thumbnails": {
					"default": {"url": "https://img/default.jpg"},
					"high": {"url": "https://img/high.jpg"}
				}
			},
			"contentDetails": {"duration": "PT4M13S"}
		}]
	}`, http.StatusOK)
	defer srv.Close()

	resolver := newTestResolver(srv.URL)
	details, err := resolver.ResolveVideo(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ResolveVideo: %v", err)
	}
	if details == nil {
		t.Fatal("ResolveVideo returned nil for a valid video")
	}

	if details.Title != "A Video" || details.ChannelTitle != "A Channel" {
		t.Errorf("snippet fields wrong: %+v", details)
	}
	if details.Duration != 4*60+13 {
		t.Errorf("duration = %d, want 253", details.Duration)
	}
	// maxres is absent here, so high is the best available.
	if details.Thumbnail != "https://img/high.jpg" {
		t.Errorf("thumbnail = %q, want the high variant", details.Thumbnail)
	}
}

func TestResolvePlaylist(t *testing.T) {
	srv := fakeYouTubeAPI(t, `{
		"items": [{
			"snippet": {
				"title": "A Playlist",
				"channelTitle": "A Channel",
				"thumbnails": {"maxres": {"url": "https://img/maxres.jpg"}}
			},
			"contentDetails": {"itemCount": 24}
		}]
	}`, http.StatusOK)
	defer srv.Close()

	resolver := newTestResolver(srv.URL)
	details, err := resolver.ResolvePlaylist(context.Background(), "PL123")
	if err != nil {
		t.Fatalf("ResolvePlaylist: %v", err)
	}
	if details == nil {
		t.Fatal("ResolvePlaylist returned nil for a valid playlist")
	}
	if details.VideoCount != 24 {
		t.Errorf("video count = %d, want 24", details.VideoCount)
	}
	if details.Thumbnail != "https://img/maxres.jpg" {
		t.Errorf("thumbnail = %q, want maxres", details.Thumbnail)
	}
}

func TestResolveFailuresReturnNilNil(t *testing.T) {
	tests := []struct {
		name   string
		server func(t *testing.T) *httptest.Server
		apiKey string
	}{
		{"missing api key", func(t *testing.T) *httptest.Server {
			return fakeYouTubeAPI(t, `{}`, http.StatusOK)
		}, ""},
		{"not found", func(t *testing.T) *httptest.Server {
			return fakeYouTubeAPI(t, `{"items": []}`, http.StatusOK)
		}, "k"},
		{"server error", func(t *testing.T) *httptest.Server {
			return fakeYouTubeAPI(t, `boom`, http.StatusInternalServerError)
		}, "k"},
		{"malformed body", func(t *testing.T) *httptest.Server {
			return fakeYouTubeAPI(t, `{not json`, http.StatusOK)
		}, "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tt.server(t)
			defer srv.Close()

			resolver := newTestResolver(srv.URL)
			resolver.APIKey = tt.apiKey

			video, err := resolver.ResolveVideo(context.Background(), "abc")
			if video != nil || err != nil {
				t.Errorf("ResolveVideo = (%v, %v), want (nil, nil)", video, err)
			}

			playlist, err := resolver.ResolvePlaylist(context.Background(), "PL1")
			if playlist != nil || err != nil {
				t.Errorf("ResolvePlaylist = (%v, %v), want (nil, nil)", playlist, err)
			}
		})
	}
}

func TestResolveNetworkFailure(t *testing.T) {
	resolver := newTestResolver("http://127.0.0.1:0")

	video, err := resolver.ResolveVideo(context.Background(), "abc")
	if video != nil || err != nil {
		t.Errorf("ResolveVideo = (%v, %v), want (nil, nil)", video, err)
	}
}
