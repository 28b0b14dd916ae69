// Package youtube 解析 YouTube 链接中的视频 ID，并通过 oEmbed 获取视频信息
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultOEmbedURL YouTube 公开的 oEmbed 地址
const DefaultOEmbedURL = "https://www.youtube.com/oembed"

// ErrInvalidURL 不是可识别的 YouTube 视频链接
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoIDRegex = regexp.MustCompile(`^.*((youtu.be\/)|(v\/)|(\/u\/\w\/)|(embed\/)|(watch\?))\??v?=?([^#&?]*).*`)

// ExtractVideoID 从 watch、短链、embed 或 /v/ 链接中取出 11 位视频 ID
func ExtractVideoID(rawURL string) (string, error) {
	match := videoIDRegex.FindStringSubmatch(rawURL)
	if match == nil || len(match[7]) != 11 {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return match[7], nil
}

// Metadata oEmbed 响应中用到的字段
type Metadata struct {
	// VideoID 和 URL 由 FetchMetadata 填入，不在响应里
	VideoID      string `json:"-"`
	URL          string `json:"-"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	ProviderName string `json:"provider_name"`
}

// Client oEmbed 客户端
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
}

// NewClient endpoint 为空时使用 DefaultOEmbedURL
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultOEmbedURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
	}
}

// FetchMetadata 校验链接并获取视频信息
func (c *Client) FetchMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("url", videoURL)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video metadata: status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("parse oembed response: %w", err)
	}
	meta.VideoID = videoID
	meta.URL = videoURL

	log.Debug().Str("video_id", videoID).Str("title", meta.Title).Msg("Fetched video metadata")
	return &meta, nil
}
