package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://lrclib.net/api"
	DefaultUserAgent = "lyrics-pinyin/1.0"
)

// logger 基于当前的全局 logger
func logger() *zerolog.Logger {
	l := log.With().Str("component", "lrclib").Logger()
	return &l
}

// ErrNotFound 歌词不存在（404）
var ErrNotFound = errors.New("lyrics not found")

// HTTPError 非200响应
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("lrclib: %s returned status %d", e.URL, e.StatusCode)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Record LRCLib API响应结构
type Record struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Options 客户端配置，零值字段使用默认值
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RPS 每秒请求数上限，0 表示不限制
	RPS float64
}

// Client LRCLib客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient 创建新的LRCLib客户端
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		limiter:    limiter,
	}
}

// GetProviderName 返回提供商名称
func (c *Client) GetProviderName() string {
	return "LRCLib"
}

// Search 按关键字搜索歌词
func (c *Client) Search(ctx context.Context, query string) ([]Record, error) {
	params := url.Values{}
	params.Set("q", query)

	var records []Record
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &records); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	logger().Info().Str("query", query).Int("results", len(records)).Msg("Search finished")
	return records, nil
}

// Get 按ID获取完整歌词
func (c *Client) Get(ctx context.Context, id int) (*Record, error) {
	var record Record
	if err := c.getJSON(ctx, "/get/"+strconv.Itoa(id), &record); err != nil {
		return nil, fmt.Errorf("get lyrics %d: %w", id, err)
	}
	return &record, nil
}

// SearchSong LRCLib不需要单独的搜索步骤，直接把查询参数编码为"ID"
func (c *Client) SearchSong(ctx context.Context, title, artist string) (string, error) {
	return fmt.Sprintf("%s|%s", title, artist), nil
}

// GetLyrics 解析 SearchSong 返回的 title|artist 并获取歌词
func (c *Client) GetLyrics(ctx context.Context, songID string) (string, error) {
	parts := strings.Split(songID, "|")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid song ID format: %s", songID)
	}
	return c.GetLyricsByInfo(ctx, parts[0], parts[1], 0)
}

// GetLyricsByInfo 直接通过歌曲信息获取歌词，duration 为0时不按时长筛选
func (c *Client) GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error) {
	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}

	var records []Record
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &records); err != nil {
		return "", err
	}

	logger().Info().Str("title", title).Str("artist", artist).Int("results", len(records)).Msg("Found candidates")

	if len(records) == 0 {
		return "", fmt.Errorf("no lyrics found for '%s - %s': %w", title, artist, ErrNotFound)
	}

	best := FindBestMatch(records, title, artist, duration)

	// 优先返回同步歌词，如果没有则返回纯文本歌词
	if best.SyncedLyrics != "" {
		logger().Info().
			Str("track", best.TrackName).
			Str("artist", best.ArtistName).
			Float64("duration", best.Duration).
			Float64("target", duration).
			Msg("Selected synced lyrics")
		return best.SyncedLyrics, nil
	}
	if best.PlainLyrics != "" {
		logger().Info().Str("track", best.TrackName).Msg("Selected plain lyrics")
		return best.PlainLyrics, nil
	}

	return "", fmt.Errorf("selected result has no lyrics for '%s - %s'", title, artist)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL + path

	var resp *http.Response
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger().Info().Int("attempt", attempt).Int("max_retries", c.maxRetries).Msg("Retrying request")
			select {
			case <-time.After(time.Duration(attempt*500) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err = c.httpClient.Do(req)
		if err != nil {
			logger().Warn().Err(err).Int("attempt", attempt+1).Msg("Request failed")
			if attempt == c.maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			continue
		}
		if resp.StatusCode == http.StatusOK {
			break
		}

		resp.Body.Close()
		httpErr := &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
		logger().Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("Request returned non-OK status")
		// 4xx 不会因为重试而改变
		if resp.StatusCode < 500 || attempt == c.maxRetries {
			return httpErr
		}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FindBestMatch 从搜索结果中找到最佳匹配的歌词，records 不能为空
func FindBestMatch(records []Record, title, artist string, duration float64) *Record {
	var exactMatches, titleMatches []*Record

	for i := range records {
		r := &records[i]
		if containsIgnoreCase(r.TrackName, title) && containsIgnoreCase(r.ArtistName, artist) {
			exactMatches = append(exactMatches, r)
		} else if containsIgnoreCase(r.TrackName, title) {
			titleMatches = append(titleMatches, r)
		}
	}

	// 如果有精确匹配，优先从精确匹配中筛选时长
	pool := exactMatches
	if len(pool) == 0 {
		pool = titleMatches
	}
	if len(pool) == 0 {
		pool = make([]*Record, len(records))
		for i := range records {
			pool[i] = &records[i]
		}
	}

	if duration <= 0 {
		return pool[0]
	}

	const maxDurationDiff = 3.0
	best := pool[0]
	minDiff := absFloat(best.Duration - duration)
	for _, r := range pool {
		diff := absFloat(r.Duration - duration)
		if diff <= maxDurationDiff {
			return r
		}
		if diff < minDiff {
			minDiff = diff
			best = r
		}
	}
	logger().Info().Float64("diff", minDiff).Msg("Using best duration match")
	return best
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// containsIgnoreCase 忽略大小写检查包含关系
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
