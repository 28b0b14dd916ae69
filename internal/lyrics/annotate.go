package lyrics

// Annotator 汉字转拼音
type Annotator interface {
	Convert(text string) string
}

// Translator 批量翻译
type Translator interface {
	TranslateLines(lines []string) ([]string, error)
}

// AnnotatedLine 带拼音和翻译的歌词行
type AnnotatedLine struct {
	Line
	Pinyin      string `json:"pinyin"`
	Translation string `json:"translation,omitempty"`
}

// Annotate 为每行歌词生成拼音，translator 不为空时附加翻译。
// 翻译失败只记录日志，不影响拼音结果。
func Annotate(track Track, annotator Annotator, translator Translator) []AnnotatedLine {
	result := make([]AnnotatedLine, len(track))
	texts := make([]string, len(track))
	for i, line := range track {
		result[i].Line = line
		if annotator != nil {
			result[i].Pinyin = annotator.Convert(line.Text)
		}
		texts[i] = line.Text
	}

	if translator == nil || len(track) == 0 {
		return result
	}

	translations, err := translator.TranslateLines(texts)
	if err != nil {
		logger().Warn().Err(err).Msg("Translation failed, showing pinyin only")
		return result
	}
	if len(translations) != len(track) {
		logger().Warn().Int("lines", len(track)).Int("translations", len(translations)).Msg("Translation count mismatch")
		return result
	}
	for i := range result {
		result[i].Translation = translations[i]
	}
	return result
}
