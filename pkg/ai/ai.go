package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type AiInterface interface {
	Name() string
	HandleText(ctx context.Context, msg string) (string, error)
}

// SongInfo 从视频标题中提取的歌曲信息
type SongInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	IsSong bool   `json:"is_song"`
}

// Query 组合成搜索关键字
func (s SongInfo) Query() string {
	return strings.TrimSpace(s.Artist + " " + s.Title)
}

func formatQuerySong(title string) string {
	return fmt.Sprintf(`请精确地按照以下JSON格式提取歌曲信息: {"is_song": true, "title": "歌曲标题", "artist": "演唱者"}。  输入是一个媒体标题，如果标题中包含歌曲信息，请返回符合格式的JSON；否则，返回{"is_song": false}。 请注意，"title" 和 "artist" 必须准确，否则将被视为错误，切记不要任何markdown格式，并将繁体中文转换为简体。 媒体标题是：%s`, title)
}

// ExtractSong 让模型从媒体标题中提取歌名和歌手
func ExtractSong(ctx context.Context, client AiInterface, mediaTitle string) (SongInfo, error) {
	raw, err := client.HandleText(ctx, formatQuerySong(mediaTitle))
	if err != nil {
		return SongInfo{}, fmt.Errorf("query %s: %w", client.Name(), err)
	}

	// 模型偶尔还是会包一层 markdown 代码块
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var info SongInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &info); err != nil {
		return SongInfo{}, fmt.Errorf("parse %s response: %w", client.Name(), err)
	}
	return info, nil
}
