// Package scheduler 把播放时间映射到歌词行，并让显示跟随播放进度
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"lyrics-pinyin/internal/lyrics"
)

// ErrIndexOutOfRange 跳转的歌词行不存在
var ErrIndexOutOfRange = errors.New("lyric index out of range")

// Renderer 接收显示更新，两个方法都必须是幂等的
type Renderer interface {
	// Highlight 把 index 标为唯一的当前行
	Highlight(index int, line lyrics.Line)
	// Clock 显示格式化后的播放时间
	Clock(text string)
}

// ActiveIndex 返回 current 时刻的当前行，早于第一行时返回 -1
// 从头扫描，取第一个已开始且下一行尚未开始的行
func ActiveIndex(track lyrics.Track, current float64) int {
	for i := range track {
		if track[i].Time <= current && (i == len(track)-1 || track[i+1].Time > current) {
			return i
		}
	}
	return -1
}

// Synchronizer 每个会话的同步状态：歌词、手动偏移和最后显示的行
type Synchronizer struct {
	mu        sync.Mutex
	renderer  Renderer
	track     lyrics.Track
	offset    float64
	lastRaw   float64
	hasRaw    bool
	lastIndex int
	lastClock string
}

func NewSynchronizer(renderer Renderer) *Synchronizer {
	return &Synchronizer{renderer: renderer, lastIndex: -1}
}

// SetTrack 替换歌词，偏移保持不变
func (s *Synchronizer) SetTrack(track lyrics.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = track
	s.lastIndex = -1
	s.lastClock = ""
}

func (s *Synchronizer) Track() lyrics.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

func (s *Synchronizer) Offset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// ActiveIndex 最后显示的行，没有时为 -1
func (s *Synchronizer) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIndex
}

// OnTick 按原始播放时间重新定位；没有当前行时不渲染，保留之前的高亮
func (s *Synchronizer) OnTick(raw float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRaw = raw
	s.hasRaw = true
	return s.evaluate()
}

// Adjust 偏移加上 delta，并立即按最后一次的原始时间重新定位
func (s *Synchronizer) Adjust(delta float64) (offset float64, index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += delta
	if !s.hasRaw {
		return s.offset, -1, false
	}
	index, ok = s.evaluate()
	return s.offset, index, ok
}

// SeekTarget 当前偏移下该行开始时的播放器位置，可能为负数
func (s *Synchronizer) SeekTarget(index int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.track) {
		return 0, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.track))
	}
	return s.track[index].Time - s.offset, nil
}

// evaluate 调用时必须持有 mu
func (s *Synchronizer) evaluate() (int, bool) {
	if len(s.track) == 0 {
		return -1, false
	}

	current := s.lastRaw + s.offset
	index := ActiveIndex(s.track, current)
	if index < 0 {
		return -1, false
	}

	if index != s.lastIndex {
		s.lastIndex = index
		if s.renderer != nil {
			s.renderer.Highlight(index, s.track[index])
		}
	}

	if clock := lyrics.FormatClock(current); clock != s.lastClock {
		s.lastClock = clock
		if s.renderer != nil {
			s.renderer.Clock(clock)
		}
	}
	return index, true
}
