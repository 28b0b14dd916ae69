package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSocketPath   = "/tmp/lyrics_pinyin.sock"
	DefaultPollInterval = 100 * time.Millisecond
	DefaultOffsetStep   = 0.5
	DefaultStatusFile   = "/tmp/lyrics"
	DefaultI3BlockSig   = 21
	appDirName          = "lyrics-pinyin"
)

func getDefaultCacheDir() string {
	// 优先使用 XDG_CACHE_HOME 环境变量
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appDirName)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// 如果获取不到用户主目录，回退到当前目录
		return "lyrics_cache"
	}

	return filepath.Join(homeDir, ".cache", appDirName)
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath string `toml:"socket_path"`
		CacheDir   string `toml:"cache_dir"`
		LogLevel   string `toml:"log_level"`
	} `toml:"app"`

	Sync struct {
		PollInterval string  `toml:"poll_interval"`
		OffsetStep   float64 `toml:"offset_step"`
	} `toml:"sync"`

	Player struct {
		Bin  string `toml:"bin"`
		Name string `toml:"name"`
	} `toml:"player"`

	LRCLib struct {
		BaseURL    string  `toml:"base_url"`
		Timeout    string  `toml:"timeout"`
		MaxRetries int     `toml:"max_retries"`
		RPS        float64 `toml:"rps"`
	} `toml:"lrclib"`

	YouTube struct {
		OEmbedURL string `toml:"oembed_url"`
	} `toml:"youtube"`

	Music struct {
		Providers []string `toml:"providers"`
	} `toml:"music"`

	AI struct {
		ModuleName string `toml:"module_name"`
		Model      string `toml:"model"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"ai"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		TTL      string `toml:"ttl"`
	} `toml:"redis"`

	Tencent struct {
		SecretID   string `toml:"secret_id"`
		SecretKey  string `toml:"secret_key"`
		TargetLang string `toml:"target_lang"`
	} `toml:"tencent"`

	I3Block struct {
		Enabled    bool   `toml:"enabled"`
		StatusFile string `toml:"status_file"`
		Signal     int    `toml:"signal"`
	} `toml:"i3block"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath string
	CacheDir   string
	LogLevel   string
}

// SyncConfig 歌词同步配置
type SyncConfig struct {
	PollInterval time.Duration
	OffsetStep   float64
}

// PlayerConfig playerctl配置
type PlayerConfig struct {
	Bin  string
	Name string
}

// LRCLibConfig LRCLib客户端配置
type LRCLibConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
}

// AIConfig AI配置
type AIConfig struct {
	ModuleName string
	Model      string
	APIKey     string
	BaseURL    string
}

// RedisConfig Redis配置，Addr 为空表示不使用Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TencentConfig 腾讯云翻译配置
type TencentConfig struct {
	SecretID   string
	SecretKey  string
	TargetLang string
}

// I3BlockConfig 状态栏配置
type I3BlockConfig struct {
	Enabled    bool
	StatusFile string
	Signal     int
}

// Config 主配置结构
type Config struct {
	App            AppConfig
	Sync           SyncConfig
	Player         PlayerConfig
	LRCLib         LRCLibConfig
	OEmbedURL      string
	MusicProviders []string
	AI             AIConfig
	Redis          RedisConfig
	Tencent        TencentConfig
	I3Block        I3BlockConfig
}

// GetConfigPath 获取默认配置文件路径
func GetConfigPath() string {
	// 优先使用 XDG_CONFIG_HOME 环境变量
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appDirName, "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Cannot get user home directory")
		return "config.toml" // 回退到当前目录
	}

	return filepath.Join(homeDir, ".config", appDirName, "config.toml")
}

// loadTomlConfig 加载TOML配置文件
func loadTomlConfig(configPath string) (*TomlConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Info().Str("path", configPath).Msg("Config file not found, using defaults")
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Info().Str("path", configPath).Msg("Loaded config")
	return &config, nil
}

// Default 默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			SocketPath: DefaultSocketPath,
			CacheDir:   getDefaultCacheDir(),
			LogLevel:   "info",
		},
		Sync: SyncConfig{
			PollInterval: DefaultPollInterval,
			OffsetStep:   DefaultOffsetStep,
		},
		Player: PlayerConfig{
			Bin: "playerctl",
		},
		LRCLib: LRCLibConfig{
			BaseURL: "https://lrclib.net/api",
			Timeout: 10 * time.Second,
			RPS:     2,
		},
		OEmbedURL:      "https://www.youtube.com/oembed",
		MusicProviders: []string{"lrclib", "netease"},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Redis: RedisConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Tencent: TencentConfig{
			TargetLang: "en",
		},
		I3Block: I3BlockConfig{
			StatusFile: DefaultStatusFile,
			Signal:     DefaultI3BlockSig,
		},
	}
}

// Load 读取配置文件并覆盖默认值，configPath 为空时使用默认路径
func Load(configPath string) *Config {
	if configPath == "" {
		configPath = GetConfigPath()
	}

	tomlConfig, err := loadTomlConfig(configPath)
	if err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("Failed to load config file, using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := Default()
	apply(config, tomlConfig)
	return config
}

func apply(config *Config, t *TomlConfig) {
	if t.App.SocketPath != "" {
		config.App.SocketPath = t.App.SocketPath
	}
	if t.App.CacheDir != "" {
		config.App.CacheDir = t.App.CacheDir
	}
	if t.App.LogLevel != "" {
		config.App.LogLevel = t.App.LogLevel
	}

	setDuration(&config.Sync.PollInterval, t.Sync.PollInterval, "sync.poll_interval")
	if t.Sync.OffsetStep > 0 {
		config.Sync.OffsetStep = t.Sync.OffsetStep
	}

	if t.Player.Bin != "" {
		config.Player.Bin = t.Player.Bin
	}
	if t.Player.Name != "" {
		config.Player.Name = t.Player.Name
	}

	if t.LRCLib.BaseURL != "" {
		config.LRCLib.BaseURL = t.LRCLib.BaseURL
	}
	setDuration(&config.LRCLib.Timeout, t.LRCLib.Timeout, "lrclib.timeout")
	if t.LRCLib.MaxRetries > 0 {
		config.LRCLib.MaxRetries = t.LRCLib.MaxRetries
	}
	if t.LRCLib.RPS > 0 {
		config.LRCLib.RPS = t.LRCLib.RPS
	}

	if t.YouTube.OEmbedURL != "" {
		config.OEmbedURL = t.YouTube.OEmbedURL
	}
	if len(t.Music.Providers) > 0 {
		config.MusicProviders = t.Music.Providers
	}

	if t.AI.ModuleName != "" {
		config.AI.ModuleName = t.AI.ModuleName
	}
	if t.AI.Model != "" {
		config.AI.Model = t.AI.Model
	}
	if t.AI.BaseURL != "" {
		config.AI.BaseURL = t.AI.BaseURL
	}
	if t.AI.APIKey != "" {
		config.AI.APIKey = t.AI.APIKey
	}

	if t.Redis.Addr != "" {
		config.Redis.Addr = t.Redis.Addr
	}
	if t.Redis.Password != "" {
		config.Redis.Password = t.Redis.Password
	}
	if t.Redis.DB != 0 {
		config.Redis.DB = t.Redis.DB
	}
	setDuration(&config.Redis.TTL, t.Redis.TTL, "redis.ttl")

	if t.Tencent.SecretID != "" {
		config.Tencent.SecretID = t.Tencent.SecretID
	}
	if t.Tencent.SecretKey != "" {
		config.Tencent.SecretKey = t.Tencent.SecretKey
	}
	if t.Tencent.TargetLang != "" {
		config.Tencent.TargetLang = t.Tencent.TargetLang
	}

	config.I3Block.Enabled = t.I3Block.Enabled
	if t.I3Block.StatusFile != "" {
		config.I3Block.StatusFile = t.I3Block.StatusFile
	}
	if t.I3Block.Signal > 0 {
		config.I3Block.Signal = t.I3Block.Signal
	}
}

func setDuration(dst *time.Duration, value, key string) {
	if value == "" {
		return
	}
	duration, err := time.ParseDuration(value)
	if err != nil || duration < 0 {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration format, using default")
		return
	}
	*dst = duration
}
