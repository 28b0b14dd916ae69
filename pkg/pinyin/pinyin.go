package pinyin

import (
	"strings"
	"unicode"

	gopinyin "github.com/mozillazg/go-pinyin"
)

// Placeholder 转换器未初始化时返回的文本
const Placeholder = "Loading pinyin converter..."

// Converter 汉字转带声调拼音
type Converter struct {
	args gopinyin.Args
}

// NewConverter 创建拼音转换器，使用声调符号风格
func NewConverter() *Converter {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.Tone
	return &Converter{args: args}
}

// Convert 将文本转换为拼音。
// 每个汉字输出一个音节，连续的非汉字字符原样保留为一个整体，音节之间用单个空格分隔。
func (c *Converter) Convert(text string) string {
	if c == nil {
		return Placeholder
	}

	var (
		tokens []string
		other  strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(other.String()); s != "" {
			tokens = append(tokens, s)
		}
		other.Reset()
	}

	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			other.WriteRune(r)
			continue
		}
		flush()
		if py := gopinyin.SinglePinyin(r, c.args); len(py) > 0 && py[0] != "" {
			tokens = append(tokens, py[0])
		} else {
			tokens = append(tokens, string(r))
		}
	}
	flush()

	return strings.Join(tokens, " ")
}
