package scheduler

import (
	"errors"
	"testing"

	"lyrics-pinyin/internal/lyrics"
)

type recordingRenderer struct {
	highlights []int
	clocks     []string
}

func (r *recordingRenderer) Highlight(index int, line lyrics.Line) {
	r.highlights = append(r.highlights, index)
}

func (r *recordingRenderer) Clock(text string) {
	r.clocks = append(r.clocks, text)
}

var abc = lyrics.Track{{Time: 0, Text: "A"}, {Time: 2, Text: "B"}, {Time: 5, Text: "C"}}

func TestActiveIndex(t *testing.T) {
	tests := []struct {
		time float64
		want int
	}{
		{0, 0},
		{1.9, 0},
		{2, 1},
		{4.999, 1},
		{5, 2},
		{100, 2},
		{-1, -1},
	}
	for _, tt := range tests {
		if got := ActiveIndex(abc, tt.time); got != tt.want {
			t.Errorf("ActiveIndex(%v) = %d, want %d", tt.time, got, tt.want)
		}
	}

	if got := ActiveIndex(nil, 3); got != -1 {
		t.Errorf("expected -1 for empty track, got %d", got)
	}
}

func TestActiveIndexDuplicateStart(t *testing.T) {
	track := lyrics.Track{{Time: 1, Text: "a"}, {Time: 1, Text: "b"}, {Time: 3, Text: "c"}}
	if got := ActiveIndex(track, 1.5); got != 1 {
		t.Errorf("expected the later of two equal starts, got %d", got)
	}
}

func TestOnTickRendersOncePerTransition(t *testing.T) {
	r := &recordingRenderer{}
	s := NewSynchronizer(r)
	s.SetTrack(abc)

	for _, raw := range []float64{0.1, 0.2, 0.3, 2.0, 2.1, 5.5} {
		s.OnTick(raw)
	}

	want := []int{0, 1, 2}
	if len(r.highlights) != len(want) {
		t.Fatalf("expected highlights %v, got %v", want, r.highlights)
	}
	for i := range want {
		if r.highlights[i] != want[i] {
			t.Errorf("expected highlights %v, got %v", want, r.highlights)
		}
	}
	if len(r.clocks) != 3 || r.clocks[2] != "0:05" {
		t.Errorf("unexpected clock updates %v", r.clocks)
	}
}

func TestOnTickBeforeFirstLineKeepsHighlight(t *testing.T) {
	r := &recordingRenderer{}
	s := NewSynchronizer(r)
	s.SetTrack(lyrics.Track{{Time: 1, Text: "A"}, {Time: 2, Text: "B"}})

	if index, ok := s.OnTick(0.5); ok || index != -1 {
		t.Fatalf("expected no match before first line, got %d", index)
	}
	if len(r.highlights) != 0 {
		t.Fatalf("expected nothing rendered, got %v", r.highlights)
	}

	s.OnTick(2.5)
	s.OnTick(0.5)
	s.OnTick(0.2)

	if len(r.highlights) != 1 || s.ActiveIndex() != 1 {
		t.Errorf("expected highlight to stay on 1, got %v (active %d)", r.highlights, s.ActiveIndex())
	}
}

func TestAdjustOffset(t *testing.T) {
	r := &recordingRenderer{}
	s := NewSynchronizer(r)
	s.SetTrack(abc)

	if _, _, ok := s.Adjust(-0.5); ok {
		t.Error("expected no evaluation before the first tick")
	}
	s.Adjust(-0.5)
	offset, _, _ := s.Adjust(0.5)
	if offset != -0.5 {
		t.Fatalf("expected offset -0.5, got %v", offset)
	}

	// 2.3 - 0.5 = 1.8 -> A
	if index, _ := s.OnTick(2.3); index != 0 {
		t.Errorf("expected lookup at raw-0.5 to select 0, got %d", index)
	}

	// +1.0 -> 2.3 + 0.5 = 2.8 -> B, re-evaluated immediately
	offset, index, ok := s.Adjust(1.0)
	if !ok || index != 1 || offset != 0.5 {
		t.Errorf("expected immediate re-evaluation to 1 with offset 0.5, got %d %v %v", index, offset, ok)
	}
	if r.highlights[len(r.highlights)-1] != 1 {
		t.Errorf("expected renderer to follow the adjustment, got %v", r.highlights)
	}
}

func TestSetTrackKeepsOffset(t *testing.T) {
	s := NewSynchronizer(nil)
	s.SetTrack(abc)
	s.OnTick(3)
	s.Adjust(1.5)

	s.SetTrack(lyrics.Track{{Time: 10, Text: "new"}})
	if s.Offset() != 1.5 {
		t.Errorf("expected offset to survive track change, got %v", s.Offset())
	}
	if s.ActiveIndex() != -1 {
		t.Errorf("expected active index reset, got %d", s.ActiveIndex())
	}
}

func TestSeekRoundTrip(t *testing.T) {
	track := lyrics.Track{{Time: 1, Text: "A"}, {Time: 5, Text: "B"}, {Time: 9, Text: "C"}}
	s := NewSynchronizer(&recordingRenderer{})
	s.SetTrack(track)
	s.OnTick(0)
	s.Adjust(0.5)

	target, err := s.SeekTarget(1)
	if err != nil {
		t.Fatalf("SeekTarget failed: %v", err)
	}
	if target != 4.5 {
		t.Fatalf("expected seek target 4.5, got %v", target)
	}

	if index, ok := s.OnTick(target); !ok || index != 1 {
		t.Errorf("expected tick at seek target to select 1, got %d", index)
	}

	if _, err := s.SeekTarget(3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := s.SeekTarget(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}
