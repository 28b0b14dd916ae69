package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval 播放时读取播放进度的间隔
const DefaultPollInterval = 100 * time.Millisecond

// logger 基于当前的全局 logger
func logger() *zerolog.Logger {
	l := log.With().Str("component", "scheduler").Logger()
	return &l
}

// Clock 返回原始播放位置，单位秒
type Clock interface {
	CurrentTime(ctx context.Context) (float64, error)
}

// Tracker 播放时轮询 Clock，同一时间最多一个轮询循环
type Tracker struct {
	sync     *Synchronizer
	clock    Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker(s *Synchronizer, clock Clock, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Tracker{sync: s, clock: clock, interval: interval}
}

// Start 取消正在运行的循环并启动新的
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.loop(ctx, done)
	logger().Debug().Dur("interval", t.interval).Msg("Lyric tracking started")
}

// Stop 取消正在运行的循环并等待其退出
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// HandleState 播放时开始跟踪，否则停止
func (t *Tracker) HandleState(playing bool) {
	if playing {
		t.Start()
		return
	}
	t.Stop()
}

func (t *Tracker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
	logger().Debug().Msg("Lyric tracking stopped")
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Tracker) tick(ctx context.Context) {
	raw, err := t.clock.CurrentTime(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger().Debug().Err(err).Msg("Failed to read playback position")
		}
		return
	}
	if raw < 0 {
		logger().Warn().Float64("player_time", raw).Msg("Invalid player time")
		return
	}
	t.sync.OnTick(raw)
}
