package lyrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyrics-pinyin/pkg/fileutil"
	"lyrics-pinyin/pkg/lrclib"
	"lyrics-pinyin/pkg/music"
)

// ErrNoSyncedLyrics 歌词记录没有带时间戳的版本，与音乐管理器返回的是同一个错误
var ErrNoSyncedLyrics = music.ErrNoSyncedLyrics

// logger 基于当前的全局 logger
func logger() *zerolog.Logger {
	l := log.With().Str("component", "lyrics").Logger()
	return &l
}

// Store 歌词文本缓存，未命中时返回空字符串和nil
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// LRCLib 歌词搜索和获取接口
type LRCLib interface {
	Search(ctx context.Context, query string) ([]lrclib.Record, error)
	Get(ctx context.Context, id int) (*lrclib.Record, error)
}

type Provider struct {
	lrc     LRCLib
	manager music.MusicManager
	store   Store
}

func NewProvider(lrc LRCLib, manager music.MusicManager, store Store) *Provider {
	return &Provider{
		lrc:     lrc,
		manager: manager,
		store:   store,
	}
}

// Search 搜索歌词候选
func (p *Provider) Search(ctx context.Context, query string) ([]lrclib.Record, error) {
	return p.lrc.Search(ctx, query)
}

// Fetch 按LRCLib ID获取同步歌词，优先读缓存
func (p *Provider) Fetch(ctx context.Context, id int) (string, error) {
	key := fmt.Sprintf("lyrics:lrclib:%d", id)
	if cached := p.cached(ctx, key); cached != "" {
		return cached, nil
	}

	record, err := p.lrc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(record.SyncedLyrics) == "" {
		return "", fmt.Errorf("lrclib %d: %w", id, ErrNoSyncedLyrics)
	}

	p.save(ctx, key, record.SyncedLyrics)
	return record.SyncedLyrics, nil
}

// Lookup 不经过用户选择，直接按歌名歌手查找歌词
func (p *Provider) Lookup(ctx context.Context, title, artist string, duration float64) (string, error) {
	if p.manager == nil {
		return "", errors.New("no music manager configured")
	}

	key := "lyrics:info:" + fileutil.SanitizeFilename(title+"-"+artist)
	if cached := p.cached(ctx, key); cached != "" {
		return cached, nil
	}

	lrc, err := p.manager.GetLyricsByInfo(ctx, title, artist, duration)
	if err != nil {
		return "", err
	}
	if len(ParseLRC(lrc)) == 0 {
		return "", fmt.Errorf("'%s - %s': %w", title, artist, ErrNoSyncedLyrics)
	}

	p.save(ctx, key, lrc)
	return lrc, nil
}

func (p *Provider) cached(ctx context.Context, key string) string {
	if p.store == nil {
		return ""
	}
	value, err := p.store.Get(ctx, key)
	if err != nil {
		logger().Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return ""
	}
	if value != "" {
		logger().Info().Str("key", key).Msg("Cache HIT")
	}
	return value
}

func (p *Provider) save(ctx context.Context, key, value string) {
	if p.store == nil {
		return
	}
	if err := p.store.Set(ctx, key, value); err != nil {
		logger().Error().Err(err).Str("key", key).Msg("Failed to write cache")
	}
}

// FileStore 以文件形式缓存歌词，每个键一个 .lrc 文件
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fileutil.SanitizeFilename(key)+".lrc")
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	return fileutil.WriteFileOverwrite(s.path(key), []byte(value), 0644)
}
