package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyrics-pinyin/internal/lyrics"
	"lyrics-pinyin/internal/player"
	"lyrics-pinyin/internal/scheduler"
	"lyrics-pinyin/pkg/ai"
	"lyrics-pinyin/pkg/lrclib"
	"lyrics-pinyin/pkg/youtube"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
	ErrNoResults      = errors.New("no such search result")
	ErrNoLyrics       = errors.New("no lyrics loaded")
	ErrNoSong         = errors.New("no song to look up")
)

const (
	requestTimeout    = 30 * time.Second
	defaultOffsetStep = 0.5
)

// logger 基于当前的全局 logger
func logger() *zerolog.Logger {
	l := log.With().Str("component", "app").Logger()
	return &l
}

// Player 播放器控制
type Player interface {
	scheduler.Clock
	SeekTo(ctx context.Context, seconds float64, allowSeekAhead bool) error
	Play(ctx context.Context) error
	Open(ctx context.Context, uri string) error
	CurrentSong(ctx context.Context) (string, error)
	Duration(ctx context.Context) float64
}

// LyricsSource 歌词搜索和获取
type LyricsSource interface {
	Search(ctx context.Context, query string) ([]lrclib.Record, error)
	Fetch(ctx context.Context, id int) (string, error)
	Lookup(ctx context.Context, title, artist string, duration float64) (string, error)
}

// VideoSource 视频信息
type VideoSource interface {
	FetchMetadata(ctx context.Context, videoURL string) (*youtube.Metadata, error)
}

// Publisher 事件推送
type Publisher interface {
	Broadcast(event any)
	SetSnapshot(event any)
}

// StatusBar 状态栏显示当前歌词
type StatusBar interface {
	Show(text, pinyin string)
}

// Selections 记住每个视频选择的歌词
type Selections interface {
	Add(key, value string) error
	Get(key string) (string, bool)
}

// Deps 会话依赖，Translator、AI、Selections、StatusBar 可以为空
type Deps struct {
	Player     Player
	Lyrics     LyricsSource
	Videos     VideoSource
	Publisher  Publisher
	Annotator  lyrics.Annotator
	Translator lyrics.Translator
	AI         ai.AiInterface
	Selections Selections
	StatusBar  StatusBar
}

type Options struct {
	PollInterval time.Duration
	OffsetStep   float64
}

type requestKind int

const (
	requestVideo requestKind = iota
	requestSearch
	requestLyrics
)

func (k requestKind) String() string {
	switch k {
	case requestVideo:
		return "video"
	case requestSearch:
		return "search"
	default:
		return "lyrics"
	}
}

// Session 一个播放会话的全部状态
type Session struct {
	deps    Deps
	step    float64
	sync    *scheduler.Synchronizer
	tracker *scheduler.Tracker

	// mu 只保护下面的字段；持有 mu 时不能调用 sync 或 tracker
	mu       sync.Mutex
	tokens   map[requestKind]string
	view     View
	playing  bool
	video    *Video
	query    string
	results  []lrclib.Record
	lyricsID int
	lines    []lyrics.AnnotatedLine
	active   int
	offset   float64
}

func NewSession(deps Deps, opts Options) *Session {
	if opts.OffsetStep <= 0 {
		opts.OffsetStep = defaultOffsetStep
	}
	s := &Session{
		deps:   deps,
		step:   opts.OffsetStep,
		tokens: make(map[requestKind]string),
		view:   ViewIdle,
		active: -1,
	}
	s.sync = scheduler.NewSynchronizer(s)
	s.tracker = scheduler.NewTracker(s.sync, deps.Player, opts.PollInterval)
	return s
}

// Handle 执行一行命令。失败时推送 error 事件并返回错误
func (s *Session) Handle(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	name := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(command, name))

	logger().Info().Str("command", name).Str("arg", arg).Msg("Handling command")

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var err error
	switch name {
	case "load":
		err = s.Load(ctx, arg)
	case "search":
		err = s.Search(ctx, arg)
	case "select":
		var n int
		if n, err = parseInt(arg); err == nil {
			err = s.Select(ctx, n)
		}
	case "get":
		var id int
		if id, err = parseInt(arg); err == nil {
			err = s.Get(ctx, id)
		}
	case "auto":
		err = s.Auto(ctx)
	case "seek":
		var index int
		if index, err = parseInt(arg); err == nil {
			err = s.Seek(ctx, index)
		}
	case "earlier":
		s.AdjustOffset(-s.step)
	case "later":
		s.AdjustOffset(s.step)
	case "offset":
		var delta float64
		if delta, err = strconv.ParseFloat(arg, 64); err != nil {
			err = fmt.Errorf("%w: offset %q", ErrBadArgument, arg)
		} else {
			s.AdjustOffset(delta)
		}
	case "view":
		err = s.SetView(View(arg))
	case "status":
		s.BroadcastStatus()
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	if err != nil {
		s.reportError(name, err)
	}
	return err
}

func parseInt(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrBadArgument, arg)
	}
	return n, nil
}

var failureMessages = map[string]string{
	"load":   "Failed to load video",
	"search": "Lyrics search failed",
	"select": "Failed to load lyrics",
	"get":    "Failed to load lyrics",
	"auto":   "No lyrics found for this song",
	"seek":   "Seek failed",
	"view":   "Cannot switch view",
}

func (s *Session) reportError(command string, err error) {
	message, ok := failureMessages[command]
	if !ok {
		message = "Command failed"
	}
	logger().Error().Err(err).Str("command", command).Msg(message)
	s.publish(Event{Type: EventError, Message: message, Detail: err.Error()})
}

// Load 加载视频：校验链接、获取标题、交给播放器打开，然后查找歌词
func (s *Session) Load(ctx context.Context, videoURL string) error {
	token := s.begin(requestVideo)

	meta, err := s.deps.Videos.FetchMetadata(ctx, videoURL)
	if err != nil {
		if !s.isLatest(requestVideo, token) {
			return nil
		}
		return fmt.Errorf("load %s: %w", videoURL, err)
	}

	video := newVideo(meta)
	query := meta.Title
	if s.deps.AI != nil {
		info, err := ai.ExtractSong(ctx, s.deps.AI, meta.Title)
		switch {
		case err != nil:
			logger().Warn().Err(err).Str("title", meta.Title).Msg("Failed to extract song info, using raw title")
		case info.IsSong && info.Title != "":
			video.SongTitle = info.Title
			video.SongArtist = info.Artist
			query = info.Query()
		}
	}

	// 新视频使进行中的搜索和歌词请求失效
	if !s.commit(requestVideo, token, func() {
		s.video = video
		s.query = query
		s.results = nil
		s.lyricsID = 0
		s.lines = nil
		s.active = -1
		s.view = ViewIdle
		s.tokens[requestSearch] = ""
		s.tokens[requestLyrics] = ""
	}) {
		return nil
	}
	s.sync.SetTrack(nil)

	logger().Info().Str("video", video.ID).Str("title", video.Title).Str("query", query).Msg("Video loaded")
	s.publish(Event{Type: EventVideo, Video: video, Query: query})
	s.publish(Event{Type: EventView, View: ViewIdle})

	if err := s.deps.Player.Open(ctx, meta.URL); err != nil {
		logger().Warn().Err(err).Str("url", meta.URL).Msg("Failed to open video in player")
		s.publish(Event{Type: EventError, Message: "Failed to open video in player", Detail: err.Error()})
	}
	s.publishStatus()

	if s.deps.Selections != nil {
		if remembered, ok := s.deps.Selections.Get(video.ID); ok {
			if id, err := strconv.Atoi(remembered); err == nil {
				s.info(fmt.Sprintf("Loading remembered lyrics %d", id))
				err := s.Get(ctx, id)
				if err == nil {
					return nil
				}
				// 记住的歌词取不到时回到搜索页
				s.reportError("get", err)
			}
		}
	}
	return s.Search(ctx, "")
}

// Search 搜索歌词，query 为空时使用当前视频的查询词
func (s *Session) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	if query == "" {
		query = s.query
	}
	s.mu.Unlock()
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: empty search query", ErrBadArgument)
	}

	token := s.begin(requestSearch)
	records, err := s.deps.Lyrics.Search(ctx, query)
	if err != nil {
		if !s.isLatest(requestSearch, token) {
			return nil
		}
		return err
	}

	if !s.commit(requestSearch, token, func() {
		s.query = query
		s.results = records
		s.view = ViewSearch
	}) {
		return nil
	}

	s.publish(Event{Type: EventResults, Query: query, Results: newResults(records)})
	s.publish(Event{Type: EventView, View: ViewSearch})
	s.publishStatus()
	if len(records) == 0 {
		s.info(fmt.Sprintf("No lyrics found for %q", query))
	}
	return nil
}

// Select 加载第 n 个搜索结果（从0开始）
func (s *Session) Select(ctx context.Context, n int) error {
	s.mu.Lock()
	if n < 0 || n >= len(s.results) {
		count := len(s.results)
		s.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrNoResults, n, count)
	}
	id := s.results[n].ID
	s.mu.Unlock()

	return s.Get(ctx, id)
}

// Get 按 LRCLib ID 加载歌词，失败时保持当前页面
func (s *Session) Get(ctx context.Context, id int) error {
	token := s.begin(requestLyrics)
	lrc, err := s.deps.Lyrics.Fetch(ctx, id)
	if err != nil {
		if !s.isLatest(requestLyrics, token) {
			return nil
		}
		return fmt.Errorf("lyrics %d: %w", id, err)
	}
	return s.showLyrics(token, id, lrc)
}

// Auto 不经过搜索页，按歌名歌手直接查找歌词
func (s *Session) Auto(ctx context.Context) error {
	var title, artist string
	s.mu.Lock()
	if s.video != nil {
		title, artist = s.video.SongTitle, s.video.SongArtist
		if title == "" {
			title = s.video.Title
		}
	}
	s.mu.Unlock()

	if title == "" {
		song, err := s.deps.Player.CurrentSong(ctx)
		if err != nil || strings.TrimSpace(song) == "" {
			return fmt.Errorf("%w: %v", ErrNoSong, err)
		}
		artist, title = splitSong(song)
	}

	token := s.begin(requestLyrics)
	lrc, err := s.deps.Lyrics.Lookup(ctx, title, artist, s.deps.Player.Duration(ctx))
	if err != nil {
		if !s.isLatest(requestLyrics, token) {
			return nil
		}
		return fmt.Errorf("'%s - %s': %w", artist, title, err)
	}
	return s.showLyrics(token, 0, lrc)
}

// splitSong 拆分 playerctl 输出的 "artist - title"
func splitSong(song string) (artist, title string) {
	parts := strings.SplitN(song, " - ", 2)
	if len(parts) != 2 {
		return "", strings.TrimSpace(song)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func (s *Session) showLyrics(token string, id int, lrc string) error {
	track := lyrics.ParseLRC(lrc)
	if len(track) == 0 {
		if !s.isLatest(requestLyrics, token) {
			return nil
		}
		return fmt.Errorf("lyrics %d: %w", id, lyrics.ErrNoSyncedLyrics)
	}
	lines := lyrics.Annotate(track, s.deps.Annotator, s.deps.Translator)

	var videoID string
	if !s.commit(requestLyrics, token, func() {
		s.lyricsID = id
		s.lines = lines
		s.active = -1
		s.view = ViewLyrics
		if s.video != nil {
			videoID = s.video.ID
		}
	}) {
		return nil
	}
	s.sync.SetTrack(track)

	if id > 0 && videoID != "" && s.deps.Selections != nil {
		if err := s.deps.Selections.Add(videoID, strconv.Itoa(id)); err != nil {
			logger().Warn().Err(err).Str("video", videoID).Msg("Failed to remember lyrics selection")
		}
	}

	logger().Info().Int("id", id).Int("lines", len(lines)).Msg("Lyrics loaded")
	s.publish(Event{Type: EventLyrics, ID: id, Lines: lines})
	s.publish(Event{Type: EventView, View: ViewLyrics})
	s.publishStatus()
	return nil
}

// Seek 跳转到某行歌词并继续播放
func (s *Session) Seek(ctx context.Context, index int) error {
	target, err := s.sync.SeekTarget(index)
	if err != nil {
		return err
	}
	position := target
	if position < 0 {
		position = 0
	}
	if err := s.deps.Player.SeekTo(ctx, position, true); err != nil {
		return fmt.Errorf("seek to %.2f: %w", position, err)
	}
	if err := s.deps.Player.Play(ctx); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	s.sync.OnTick(target)
	return nil
}

// AdjustOffset 调整时间偏移，立即按最后一次的播放时间重新定位
func (s *Session) AdjustOffset(delta float64) {
	offset, index, _ := s.sync.Adjust(delta)

	s.mu.Lock()
	s.offset = offset
	s.mu.Unlock()

	logger().Info().Float64("offset", offset).Int("index", index).Msg("Offset adjusted")
	s.publish(Event{Type: EventOffset, Offset: &offset})
	s.publishStatus()
}

// SetView 切换页面，歌词为空时不能切到歌词页
func (s *Session) SetView(view View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch view {
	case ViewSearch:
	case ViewLyrics:
		if len(s.lines) == 0 {
			return ErrNoLyrics
		}
	default:
		return fmt.Errorf("%w: view %q", ErrBadArgument, view)
	}
	s.view = view

	s.publish(Event{Type: EventView, View: view})
	s.deps.Publisher.SetSnapshot(s.statusEventLocked())
	return nil
}

// HandlePlayerState 播放时跟踪歌词，暂停或停止时停止跟踪
func (s *Session) HandlePlayerState(state player.State) {
	playing := state == player.StatePlaying
	s.tracker.HandleState(playing)

	s.mu.Lock()
	changed := s.playing != playing
	s.playing = playing
	s.mu.Unlock()

	if changed {
		logger().Info().Str("state", string(state)).Msg("Player state changed")
		s.publishStatus()
	}
}

// Close 停止歌词跟踪
func (s *Session) Close() {
	s.tracker.Stop()
}

// Highlight 推送当前歌词行，同时更新状态栏
func (s *Session) Highlight(index int, line lyrics.Line) {
	s.mu.Lock()
	annotated := lyrics.AnnotatedLine{Line: line}
	if index < len(s.lines) && s.lines[index].Line == line {
		annotated = s.lines[index]
	}
	s.active = index
	s.mu.Unlock()

	if annotated.Pinyin == "" && s.deps.Annotator != nil {
		annotated.Pinyin = s.deps.Annotator.Convert(line.Text)
	}

	logger().Debug().Int("index", index).Float64("lyric_time", line.Time).Str("lyric", line.Text).Msg("Broadcasting lyric")
	s.publish(Event{Type: EventActive, Index: &index, Line: &annotated})
	if s.deps.StatusBar != nil {
		s.deps.StatusBar.Show(line.Text, annotated.Pinyin)
	}
}

func (s *Session) Clock(text string) {
	s.publish(Event{Type: EventClock, Clock: text})
}

// Status 返回当前会话快照
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		View:     s.view,
		Playing:  s.playing,
		Video:    s.video,
		Query:    s.query,
		Results:  len(s.results),
		LyricsID: s.lyricsID,
		Lines:    len(s.lines),
		Active:   s.active,
		Offset:   s.offset,
	}
}

func (s *Session) statusEventLocked() Event {
	status := s.statusLocked()
	return Event{Type: EventStatus, Status: &status}
}

func (s *Session) publishStatus() {
	s.mu.Lock()
	event := s.statusEventLocked()
	s.mu.Unlock()
	s.deps.Publisher.SetSnapshot(event)
}

// BroadcastStatus 推送快照给所有客户端
func (s *Session) BroadcastStatus() {
	s.mu.Lock()
	event := s.statusEventLocked()
	s.mu.Unlock()
	s.deps.Publisher.SetSnapshot(event)
	s.publish(event)
}

func (s *Session) publish(event Event) {
	s.deps.Publisher.Broadcast(event)
}

func (s *Session) info(message string) {
	s.publish(Event{Type: EventInfo, Message: message})
}

// begin 为新请求生成令牌，旧令牌随之失效
func (s *Session) begin(kind requestKind) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[kind] = token
	s.mu.Unlock()
	return token
}

func (s *Session) isLatest(kind requestKind, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[kind] != token {
		logger().Info().Str("request", kind.String()).Str("token", token).Msg("Discarding stale response")
		return false
	}
	return true
}

// commit 令牌仍然有效时在锁内应用结果
func (s *Session) commit(kind requestKind, token string, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[kind] != token {
		logger().Info().Str("request", kind.String()).Str("token", token).Msg("Discarding stale response")
		return false
	}
	apply()
	return true
}
