package app

import (
	"lyrics-pinyin/internal/lyrics"
	"lyrics-pinyin/pkg/lrclib"
	"lyrics-pinyin/pkg/youtube"
)

// 推送给客户端的事件类型
const (
	EventVideo   = "video"
	EventResults = "results"
	EventLyrics  = "lyrics"
	EventActive  = "active"
	EventClock   = "clock"
	EventOffset  = "offset"
	EventView    = "view"
	EventStatus  = "status"
	EventError   = "error"
	EventInfo    = "info"
)

// View 当前显示的页面
type View string

const (
	ViewIdle   View = "idle"
	ViewSearch View = "search"
	ViewLyrics View = "lyrics"
)

// Event 每个事件序列化为一行 JSON
type Event struct {
	Type    string                 `json:"type"`
	Video   *Video                 `json:"video,omitempty"`
	Query   string                 `json:"query,omitempty"`
	Results []Result               `json:"results,omitempty"`
	ID      int                    `json:"id,omitempty"`
	Lines   []lyrics.AnnotatedLine `json:"lines,omitempty"`
	Index   *int                   `json:"index,omitempty"`
	Line    *lyrics.AnnotatedLine  `json:"line,omitempty"`
	Clock   string                 `json:"clock,omitempty"`
	Offset  *float64               `json:"offset,omitempty"`
	View    View                   `json:"view,omitempty"`
	Status  *Status                `json:"status,omitempty"`
	Message string                 `json:"message,omitempty"`
	Detail  string                 `json:"detail,omitempty"`
}

// Video 已加载视频的信息
type Video struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail,omitempty"`
	// 从标题中解析出的歌曲信息，解析失败时为空
	SongTitle  string `json:"song_title,omitempty"`
	SongArtist string `json:"song_artist,omitempty"`
}

func newVideo(meta *youtube.Metadata) *Video {
	return &Video{
		ID:        meta.VideoID,
		URL:       meta.URL,
		Title:     meta.Title,
		Author:    meta.AuthorName,
		Thumbnail: meta.ThumbnailURL,
	}
}

// Result 搜索结果，不带歌词正文
type Result struct {
	Index    int     `json:"index"`
	ID       int     `json:"id"`
	Track    string  `json:"track"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Synced   bool    `json:"synced"`
}

func newResults(records []lrclib.Record) []Result {
	results := make([]Result, len(records))
	for i, r := range records {
		results[i] = Result{
			Index:    i,
			ID:       r.ID,
			Track:    r.TrackName,
			Artist:   r.ArtistName,
			Album:    r.AlbumName,
			Duration: r.Duration,
			Synced:   r.SyncedLyrics != "",
		}
	}
	return results
}

// Status 会话快照，新客户端连接时首先收到
type Status struct {
	View     View    `json:"view"`
	Playing  bool    `json:"playing"`
	Video    *Video  `json:"video,omitempty"`
	Query    string  `json:"query,omitempty"`
	Results  int     `json:"results"`
	LyricsID int     `json:"lyrics_id,omitempty"`
	Lines    int     `json:"lines"`
	Active   int     `json:"active"`
	Offset   float64 `json:"offset"`
}
