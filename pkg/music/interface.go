package music

import (
	"context"
)

// MusicAPI 单个音乐提供商
type MusicAPI interface {
	// SearchSong 搜索歌曲，返回歌曲ID
	SearchSong(ctx context.Context, title, artist string) (string, error)

	// GetLyrics 根据歌曲ID获取歌词
	GetLyrics(ctx context.Context, songID string) (string, error)

	// GetProviderName 获取音乐提供商名称
	GetProviderName() string
}

// MusicManager 按歌曲信息查找同步歌词
type MusicManager interface {
	GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error)
	GetProviderName() string
}

// infoLookup 可以直接按歌曲信息（含时长）查询歌词的提供商
type infoLookup interface {
	GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error)
}
