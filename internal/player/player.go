package player

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// State MPRIS播放状态
type State string

const (
	StatePlaying State = "Playing"
	StatePaused  State = "Paused"
	StateStopped State = "Stopped"
	StateUnknown State = "Unknown"
)

// ParseState 解析 playerctl status 的输出
func ParseState(s string) State {
	switch strings.TrimSpace(s) {
	case "Playing":
		return StatePlaying
	case "Paused":
		return StatePaused
	case "Stopped":
		return StateStopped
	default:
		return StateUnknown
	}
}

// Runner 执行命令并返回标准输出
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Player 通过 playerctl 控制 MPRIS 播放器
type Player struct {
	bin  string
	name string
	run  Runner
}

// New 创建播放器适配器，name 为空时由 playerctl 自行选择播放器
func New(bin, name string) *Player {
	if bin == "" {
		bin = "playerctl"
	}
	return &Player{bin: bin, name: name, run: execRunner}
}

// WithRunner 替换命令执行器，用于测试
func (p *Player) WithRunner(run Runner) *Player {
	p.run = run
	return p
}

func (p *Player) args(args ...string) []string {
	if p.name == "" {
		return args
	}
	return append([]string{"--player=" + p.name}, args...)
}

func (p *Player) exec(ctx context.Context, args ...string) (string, error) {
	out, err := p.run(ctx, p.bin, p.args(args...)...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", p.bin, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentTime 当前播放位置（秒）
func (p *Player) CurrentTime(ctx context.Context) (float64, error) {
	out, err := p.exec(ctx, "position")
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("parse position %q: %w", out, err)
	}
	return seconds, nil
}

// SeekTo 跳转到指定位置。playerctl 总是会直接跳转，allowSeekAhead 仅为接口对齐保留。
func (p *Player) SeekTo(ctx context.Context, seconds float64, allowSeekAhead bool) error {
	if seconds < 0 {
		seconds = 0
	}
	_, err := p.exec(ctx, "position", strconv.FormatFloat(seconds, 'f', 3, 64))
	return err
}

// Play 开始播放
func (p *Player) Play(ctx context.Context) error {
	_, err := p.exec(ctx, "play")
	return err
}

// Open 让播放器打开一个URI（需要播放器支持 OpenUri，例如 mpv-mpris）
func (p *Player) Open(ctx context.Context, uri string) error {
	_, err := p.exec(ctx, "open", uri)
	return err
}

// Status 当前播放状态
func (p *Player) Status(ctx context.Context) (State, error) {
	out, err := p.exec(ctx, "status")
	if err != nil {
		return StateUnknown, err
	}
	return ParseState(out), nil
}

// CurrentSong 当前歌曲 "artist - title"
func (p *Player) CurrentSong(ctx context.Context) (string, error) {
	return p.exec(ctx, "metadata", "--format", `{{artist}} - {{title}}`)
}

// Duration 当前媒体时长（秒），未知时返回0
func (p *Player) Duration(ctx context.Context) float64 {
	out, err := p.exec(ctx, "metadata", "mpris:length")
	if err != nil {
		return 0
	}
	micros, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0
	}
	return micros / 1e6
}

// Watch 订阅播放状态变化，ctx 结束或 playerctl 退出时关闭通道
func (p *Player) Watch(ctx context.Context) (<-chan State, error) {
	cmd := exec.CommandContext(ctx, p.bin, p.args("--follow", "status")...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s --follow: %w", p.bin, err)
	}

	states := make(chan State)
	go func() {
		defer close(states)
		defer cmd.Wait()

		scanStates(ctx, bufio.NewScanner(stdout), states)
		log.Debug().Msg("playerctl status stream ended")
	}()
	return states, nil
}

func scanStates(ctx context.Context, scanner *bufio.Scanner, out chan<- State) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- ParseState(line):
		case <-ctx.Done():
			return
		}
	}
}
