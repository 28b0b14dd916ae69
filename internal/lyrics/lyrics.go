package lyrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Line 单行歌词
type Line struct {
	Time float64 `json:"time"` // 开始时间（秒）
	Text string  `json:"text"`
}

// Track 一首歌的全部歌词，按输入顺序排列
type Track []Line

var timestampRe = regexp.MustCompile(`\[(\d+):(\d+)\.(\d+)\]`)

// ParseLRC 解析LRC歌词。
// 每行只取第一个时间戳，小数部分按整数解析后除以100。
// 没有时间戳或去掉时间戳后为空的行会被丢弃。结果保持输入顺序，不做排序。
func ParseLRC(lrc string) Track {
	var result Track

	for _, line := range strings.Split(lrc, "\n") {
		loc := timestampRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		min, _ := strconv.Atoi(line[loc[2]:loc[3]])
		sec, _ := strconv.Atoi(line[loc[4]:loc[5]])
		cs, _ := strconv.Atoi(line[loc[6]:loc[7]])

		text := strings.TrimSpace(line[:loc[0]] + line[loc[1]:])
		if text == "" {
			continue
		}

		result = append(result, Line{
			Time: float64(min*60+sec) + float64(cs)/100,
			Text: text,
		})
	}
	return result
}

// FormatClock 将秒数格式化为 M:SS
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
