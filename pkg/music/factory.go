package music

import (
	"fmt"

	"lyrics-pinyin/pkg/lrclib"
	"lyrics-pinyin/pkg/netease"
)

// CreateProvider 创建音乐提供商客户端
func CreateProvider(provider Provider, lrc *lrclib.Client) (MusicAPI, error) {
	switch provider {
	case ProviderLRCLib:
		if lrc == nil {
			return nil, fmt.Errorf("lrclib client not configured")
		}
		return lrc, nil
	case ProviderNetEase:
		logger().Info().Msg("Creating NetEase music client")
		return netease.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown music provider: %s", provider)
	}
}

// CreateDefaultManager 按优先级创建音乐API管理器：LRCLib 优先，网易云兜底
func CreateDefaultManager(lrc *lrclib.Client, providerNames []string) (*Manager, error) {
	if len(providerNames) == 0 {
		providerNames = []string{string(ProviderLRCLib), string(ProviderNetEase)}
	}

	var providers []MusicAPI
	for _, name := range providerNames {
		providerType, err := GetProviderByName(name)
		if err != nil {
			logger().Warn().Err(err).Msg("Skipping provider")
			continue
		}
		provider, err := CreateProvider(providerType, lrc)
		if err != nil {
			logger().Warn().Err(err).Str("provider", name).Msg("Failed to create provider")
			continue
		}
		providers = append(providers, provider)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no music providers available")
	}

	return NewManager(providers), nil
}

// GetProviderByName 根据名称获取提供商
func GetProviderByName(name string) (Provider, error) {
	switch name {
	case "lrclib":
		return ProviderLRCLib, nil
	case "netease", "网易云", "163":
		return ProviderNetEase, nil
	default:
		return "", fmt.Errorf("unknown provider name: %s", name)
	}
}
