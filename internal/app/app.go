package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyrics-pinyin/internal/config"
	"lyrics-pinyin/internal/i3block"
	"lyrics-pinyin/internal/ipc"
	"lyrics-pinyin/internal/lyrics"
	"lyrics-pinyin/internal/player"
	"lyrics-pinyin/pkg/ai"
	"lyrics-pinyin/pkg/ai/gemini"
	"lyrics-pinyin/pkg/ai/openai"
	"lyrics-pinyin/pkg/lrclib"
	"lyrics-pinyin/pkg/music"
	"lyrics-pinyin/pkg/musiccache"
	"lyrics-pinyin/pkg/pinyin"
	"lyrics-pinyin/pkg/redis"
	"lyrics-pinyin/pkg/tencent"
	"lyrics-pinyin/pkg/youtube"
)

// SetupLogging 设置 zerolog 的全局配置
func SetupLogging(level string) {
	setupLogging(os.Stderr, level)
}

func setupLogging(out io.Writer, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stderr})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

type App struct {
	cfg       *config.Config
	ipcServer *ipc.Server
	player    *player.Player
	session   *Session
	i3block   *i3block.Controller
	redis     *redis.Client
	ctx       context.Context
}

// NewLRCLib 按配置创建 LRCLib 客户端
func NewLRCLib(cfg *config.Config) *lrclib.Client {
	return lrclib.NewClient(lrclib.Options{
		BaseURL:    cfg.LRCLib.BaseURL,
		Timeout:    cfg.LRCLib.Timeout,
		MaxRetries: cfg.LRCLib.MaxRetries,
		RPS:        cfg.LRCLib.RPS,
	})
}

// NewLyricsProvider 创建歌词提供商：Redis 可用时用 Redis 缓存，否则用文件缓存
func NewLyricsProvider(cfg *config.Config) (*lyrics.Provider, *redis.Client) {
	lrc := NewLRCLib(cfg)

	manager, err := music.CreateDefaultManager(lrc, cfg.MusicProviders)
	if err != nil {
		log.Warn().Err(err).Msg("Music manager unavailable, auto lookup disabled")
	}

	var store lyrics.Store = lyrics.NewFileStore(filepath.Join(cfg.App.CacheDir, "lyrics"))
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using file cache")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis lyrics cache")
			store = redisClient
		}
	}

	// manager 为 nil 指针时不能直接赋值给接口
	if manager == nil {
		return lyrics.NewProvider(lrc, nil, store), redisClient
	}
	return lyrics.NewProvider(lrc, manager, store), redisClient
}

// newAIClient 没有配置 api_key 时返回 nil
func newAIClient(cfg config.AIConfig) ai.AiInterface {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.ModuleName == "gemini" {
		client, err := gemini.NewGemini(cfg.APIKey, cfg.Model)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create gemini client, title extraction disabled")
			return nil
		}
		return client
	}
	return openai.NewOpenAi(cfg.APIKey, cfg.Model, cfg.BaseURL)
}

func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.App.CacheDir, 0755); err != nil {
		return nil, err
	}
	log.Info().Str("cache_dir", cfg.App.CacheDir).Msg("Lyrics cache directory")

	a := &App{
		cfg:    cfg,
		player: player.New(cfg.Player.Bin, cfg.Player.Name),
		ctx:    context.Background(),
	}
	a.ipcServer = ipc.NewServer(cfg.App.SocketPath, a.handleCommand)

	provider, redisClient := NewLyricsProvider(cfg)
	a.redis = redisClient

	deps := Deps{
		Player:    a.player,
		Lyrics:    provider,
		Videos:    youtube.NewClient(cfg.OEmbedURL, cfg.LRCLib.Timeout),
		Publisher: a.ipcServer,
		Annotator: pinyin.NewConverter(),
		AI:        newAIClient(cfg.AI),
	}

	if cfg.Tencent.SecretID != "" && cfg.Tencent.SecretKey != "" {
		translator, err := tencent.NewClient(cfg.Tencent.SecretID, cfg.Tencent.SecretKey, cfg.Tencent.TargetLang)
		if err != nil {
			log.Warn().Err(err).Msg("Translation disabled")
		} else {
			deps.Translator = translator
		}
	}

	selections, err := musiccache.Open(filepath.Join(cfg.App.CacheDir, "selections.list"))
	if err != nil {
		log.Warn().Err(err).Msg("Selection memory disabled")
	} else {
		deps.Selections = selections
	}

	if cfg.I3Block.Enabled {
		a.i3block = i3block.NewController(cfg.I3Block.Signal)
		deps.StatusBar = i3block.NewBlock(cfg.I3Block.StatusFile, a.i3block)
	}

	a.session = NewSession(deps, Options{
		PollInterval: cfg.Sync.PollInterval,
		OffsetStep:   cfg.Sync.OffsetStep,
	})
	return a, nil
}

func (a *App) handleCommand(command string) {
	// 错误已经作为 error 事件推送
	_ = a.session.Handle(a.ctx, command)
}

// Run 启动 IPC 服务并跟随播放器状态，直到 ctx 结束
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx

	if err := a.ipcServer.Start(); err != nil {
		return err
	}
	defer a.ipcServer.Close()
	a.session.publishStatus()

	if a.i3block != nil {
		if err := a.i3block.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start i3block controller")
		}
		defer a.i3block.Stop()
	}
	if a.redis != nil {
		defer a.redis.Close()
	}
	defer a.session.Close()

	log.Info().Str("socket", a.cfg.App.SocketPath).Msg("Lyrics server ready")
	a.watchPlayer(ctx)
	return nil
}

// watchPlayer playerctl 退出后每隔几秒重新订阅
func (a *App) watchPlayer(ctx context.Context) {
	const retryDelay = 3 * time.Second

	for {
		states, err := a.player.Watch(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to watch player state")
		} else {
			for state := range states {
				a.session.HandlePlayerState(state)
			}
			a.session.HandlePlayerState(player.StateStopped)
		}

		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				log.Warn().Err(ctx.Err()).Msg("Player watch ended")
			}
			return
		case <-time.After(retryDelay):
		}
	}
}
