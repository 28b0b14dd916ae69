package player

import (
	"bufio"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

func fakeRunner(calls *[]call, out string, err error) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name, args})
		return []byte(out), err
	}
}

func TestCurrentTime(t *testing.T) {
	var calls []call
	p := New("", "mpv").WithRunner(fakeRunner(&calls, "12.345678\n", nil))

	got, err := p.CurrentTime(context.Background())
	if err != nil {
		t.Fatalf("CurrentTime failed: %v", err)
	}
	if got != 12.345678 {
		t.Errorf("expected 12.345678, got %v", got)
	}
	want := call{"playerctl", []string{"--player=mpv", "position"}}
	if !reflect.DeepEqual(calls[0], want) {
		t.Errorf("unexpected call %+v", calls[0])
	}
}

func TestCurrentTimeErrors(t *testing.T) {
	var calls []call
	p := New("", "").WithRunner(fakeRunner(&calls, "", errors.New("No players found")))
	if _, err := p.CurrentTime(context.Background()); err == nil {
		t.Error("expected runner error")
	}

	p = New("", "").WithRunner(fakeRunner(&calls, "garbage", nil))
	if _, err := p.CurrentTime(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}

func TestSeekAndPlay(t *testing.T) {
	var calls []call
	p := New("/usr/bin/playerctl", "").WithRunner(fakeRunner(&calls, "", nil))

	if err := p.SeekTo(context.Background(), 4.5, true); err != nil {
		t.Fatal(err)
	}
	if err := p.SeekTo(context.Background(), -2, true); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []call{
		{"/usr/bin/playerctl", []string{"position", "4.500"}},
		{"/usr/bin/playerctl", []string{"position", "0.000"}},
		{"/usr/bin/playerctl", []string{"play"}},
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("unexpected calls %+v", calls)
	}
}

func TestStatusAndDuration(t *testing.T) {
	var calls []call
	p := New("", "").WithRunner(fakeRunner(&calls, "Paused\n", nil))
	state, err := p.Status(context.Background())
	if err != nil || state != StatePaused {
		t.Errorf("expected Paused, got %v (%v)", state, err)
	}

	p = New("", "").WithRunner(fakeRunner(&calls, "269000000", nil))
	if d := p.Duration(context.Background()); d != 269 {
		t.Errorf("expected 269s, got %v", d)
	}
}

func TestParseState(t *testing.T) {
	tests := map[string]State{
		"Playing":  StatePlaying,
		"Paused\n": StatePaused,
		"Stopped":  StateStopped,
		"":         StateUnknown,
		"No player could handle this command": StateUnknown,
	}
	for in, want := range tests {
		if got := ParseState(in); got != want {
			t.Errorf("ParseState(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestScanStates(t *testing.T) {
	out := make(chan State, 10)
	scanStates(context.Background(), bufio.NewScanner(strings.NewReader("Playing\n\nPaused\nPlaying\n")), out)
	close(out)

	var got []State
	for s := range out {
		got = append(got, s)
	}
	want := []State{StatePlaying, StatePaused, StatePlaying}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
