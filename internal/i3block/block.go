package i3block

import (
	"strings"

	"github.com/rs/zerolog/log"

	"lyrics-pinyin/pkg/fileutil"
)

// Block 把当前歌词写入状态文件并通知 i3blocks 刷新
type Block struct {
	statusFile string
	controller *Controller
}

func NewBlock(statusFile string, controller *Controller) *Block {
	return &Block{statusFile: statusFile, controller: controller}
}

// Show 第一行为歌词，第二行为拼音（i3blocks 的 full_text / short_text）
func (b *Block) Show(text, pinyin string) {
	content := strings.TrimSpace(text) + "\n"
	if pinyin != "" {
		content += strings.TrimSpace(pinyin) + "\n"
	}

	if err := fileutil.WriteFileOverwrite(b.statusFile, []byte(content), 0644); err != nil {
		log.Error().Err(err).Str("file", b.statusFile).Msg("Failed to write status file")
		return
	}
	if b.controller == nil {
		return
	}
	if err := b.controller.Notify(); err != nil {
		log.Debug().Err(err).Msg("Failed to notify i3blocks")
	}
}
