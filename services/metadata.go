package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"kapsul/logger"
	"kapsul/model"
	"kapsul/utils"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

var isoDurationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration converts an ISO 8601 duration like "PT15M33S" to
// seconds. Unparseable input yields 0.
func ParseISODuration(isoDuration string) int {
	m := isoDurationPattern.FindStringSubmatch(isoDuration)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

// YouTubeResolver fetches video and playlist metadata from the YouTube
// Data API, caching results in Redis. Every failure path returns
// (nil, nil): metadata is best-effort decoration and the capture flow
// must keep working without it.
type YouTubeResolver struct {
	APIKey   string
	BaseURL  string
	HTTP     *http.Client
	Cache    *redis.Client
	CacheTTL time.Duration
}

func NewYouTubeResolver(apiKey string, cache *redis.Client, cacheTTL time.Duration) *YouTubeResolver {
	return &YouTubeResolver{
		APIKey:   apiKey,
		BaseURL:  youtubeAPIBase,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Cache:    cache,
		CacheTTL: cacheTTL,
	}
}

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeSnippet struct {
	Title        string                      `json:"title"`
	Description  string                      `json:"description"`
	ChannelTitle string                      `json:"channelTitle"`
	Tags         []string                    `json:"tags"`
	Thumbnails   map[string]youtubeThumbnail `json:"thumbnails"`
}

type youtubeContentDetails struct {
	Duration  string `json:"duration"`
	ItemCount int    `json:"itemCount"`
}

type youtubeListResponse struct {
	Items []struct {
		Snippet        youtubeSnippet        `json:"snippet"`
		ContentDetails youtubeContentDetails `json:"contentDetails"`
	} `json:"items"`
}

// bestThumbnail prefers maxres, then high, then default.
func bestThumbnail(thumbnails map[string]youtubeThumbnail) string {
	for _, size := range []string{"maxres", "high", "default"} {
		if t, ok := thumbnails[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// ResolveVideo looks up a video by id. Returns (nil, nil) when the API
// key is missing, the request fails or the video does not exist.
func (r *YouTubeResolver) ResolveVideo(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	if r.APIKey == "" {
		utils.TrackMetadataLookup("video", "skipped")
		return nil, nil
	}

	cacheKey := "metadata:video:" + videoID
	var cached model.VideoMetadata
	if r.cacheGet(ctx, cacheKey, &cached) {
		utils.TrackMetadataLookup("video", "cache_hit")
		return &cached, nil
	}

	resp, err := r.fetch(ctx, "videos", videoID)
	if err != nil || len(resp.Items) == 0 {
		utils.TrackMetadataLookup("video", "miss")
		return nil, nil
	}

	item := resp.Items[0]
	details := &model.VideoMetadata{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Thumbnail:    bestThumbnail(item.Snippet.Thumbnails),
		ChannelTitle: item.Snippet.ChannelTitle,
		Duration:     ParseISODuration(item.ContentDetails.Duration),
		Tags:         item.Snippet.Tags,
	}

	r.cacheSet(ctx, cacheKey, details)
	utils.TrackMetadataLookup("video", "hit")
	return details, nil
}

// ResolvePlaylist looks up a playlist by id with the same failure
// contract as ResolveVideo.
func (r *YouTubeResolver) ResolvePlaylist(ctx context.Context, playlistID string) (*model.PlaylistMetadata, error) {
	if r.APIKey == "" {
		utils.TrackMetadataLookup("playlist", "skipped")
		return nil, nil
	}

	cacheKey := "metadata:playlist:" + playlistID
	var cached model.PlaylistMetadata
	if r.cacheGet(ctx, cacheKey, &cached) {
		utils.TrackMetadataLookup("playlist", "cache_hit")
		return &cached, nil
	}

	resp, err := r.fetch(ctx, "playlists", playlistID)
	if err != nil || len(resp.Items) == 0 {
		utils.TrackMetadataLookup("playlist", "miss")
		return nil, nil
	}

	item := resp.Items[0]
	details := &model.PlaylistMetadata{
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		Thumbnail:    bestThumbnail(item.Snippet.Thumbnails),
		ChannelTitle: item.Snippet.ChannelTitle,
		VideoCount:   item.ContentDetails.ItemCount,
		Tags:         item.Snippet.Tags,
	}

	r.cacheSet(ctx, cacheKey, details)
	utils.TrackMetadataLookup("playlist", "hit")
	return details, nil
}

func (r *YouTubeResolver) fetch(ctx context.Context, resource, id string) (*youtubeListResponse, error) {
	query := url.Values{}
	query.Set("part", "snippet,contentDetails")
	query.Set("id", id)
	query.Set("key", r.APIKey)

	endpoint := fmt.Sprintf("%s/%s?%s", r.BaseURL, resource, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		logger.L.Warn("metadata lookup failed",
			logger.String("resource", resource), logger.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.L.Warn("metadata lookup returned non-OK status",
			logger.String("resource", resource), logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("youtube api status %d", resp.StatusCode)
	}

	var parsed youtubeListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (r *YouTubeResolver) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.Cache == nil {
		return false
	}
	data, err := r.Cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L.Warn("metadata cache read failed", logger.Error(err))
		}
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (r *YouTubeResolver) cacheSet(ctx context.Context, key string, value interface{}) {
	if r.Cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.CacheTTL).Err(); err != nil {
		logger.L.Warn("metadata cache write failed", logger.Error(err))
	}
}
