package music

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provider 音乐提供商类型
type Provider string

const (
	// ProviderLRCLib LRCLib歌词库
	ProviderLRCLib Provider = "lrclib"
	// ProviderNetEase 网易云音乐
	ProviderNetEase Provider = "netease"
)

// ErrNoSyncedLyrics 提供商只有不带时间戳的歌词
var ErrNoSyncedLyrics = errors.New("no synced lyrics")

var syncedLine = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

func logger() *zerolog.Logger {
	l := log.With().Str("component", "music-manager").Logger()
	return &l
}

// Manager 按顺序尝试各个提供商，直到拿到同步歌词
type Manager struct {
	providers []MusicAPI
}

func NewManager(providers []MusicAPI) *Manager {
	if len(providers) == 0 {
		logger().Warn().Msg("No music providers configured")
	} else {
		logger().Info().Strs("providers", providerNames(providers)).Msg("Music manager initialized")
	}
	return &Manager{providers: providers}
}

// GetLyricsByInfo 按歌名、歌手和时长查找同步歌词。
// 某个提供商失败或者只有纯文本歌词时换下一个。
func (m *Manager) GetLyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error) {
	if len(m.providers) == 0 {
		return "", fmt.Errorf("no music providers available")
	}

	var lastErr error
	for i, provider := range m.providers {
		name := provider.GetProviderName()
		plog := logger().With().Str("provider", name).Int("attempt", i+1).Logger()

		lrc, err := fetchFrom(ctx, provider, title, artist, duration)
		if err == nil && !syncedLine.MatchString(lrc) {
			err = fmt.Errorf("%s: %w", name, ErrNoSyncedLyrics)
		}
		if err != nil {
			plog.Warn().Err(err).Str("title", title).Str("artist", artist).Msg("Provider failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		plog.Info().Str("title", title).Str("artist", artist).Float64("duration", duration).Msg("Got synced lyrics")
		return lrc, nil
	}

	return "", fmt.Errorf("all providers failed for '%s - %s': %w", title, artist, lastErr)
}

// fetchFrom 支持按歌曲信息查询的提供商（LRCLib）跳过搜索步骤
func fetchFrom(ctx context.Context, provider MusicAPI, title, artist string, duration float64) (string, error) {
	if lookup, ok := provider.(infoLookup); ok {
		return lookup.GetLyricsByInfo(ctx, title, artist, duration)
	}

	songID, err := provider.SearchSong(ctx, title, artist)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	lrc, err := provider.GetLyrics(ctx, songID)
	if err != nil {
		return "", fmt.Errorf("lyrics of %s: %w", songID, err)
	}
	return lrc, nil
}

// GetProviderName 按优先级列出提供商
func (m *Manager) GetProviderName() string {
	if len(m.providers) == 0 {
		return "Manager[]"
	}
	return "Manager[" + strings.Join(providerNames(m.providers), " > ") + "]"
}

func providerNames(providers []MusicAPI) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.GetProviderName()
	}
	return names
}
