package ipc

import (
	"bufio"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func startServer(t *testing.T, handler Handler) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "l.sock")
	server := NewServer(path, handler)
	if err := server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(server.Close)
	return server, path
}

func TestCommandsReachHandler(t *testing.T) {
	var mu sync.Mutex
	var got []string
	received := make(chan struct{}, 4)

	_, path := startServer(t, func(command string) {
		mu.Lock()
		got = append(got, command)
		mu.Unlock()
		received <- struct{}{}
	})

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte("search 晴天\n\n  later  \n"))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for commands")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "search 晴天" || got[1] != "later" {
		t.Errorf("unexpected commands %q", got)
	}
}

func TestBroadcastAndSnapshot(t *testing.T) {
	server, path := startServer(t, nil)
	server.SetSnapshot(event{Type: "status", Text: "idle"})

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)

	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if strings.TrimSpace(line) != `{"type":"status","text":"idle"}` {
		t.Errorf("unexpected snapshot %q", line)
	}

	// 等待服务端登记连接
	deadline := time.Now().Add(2 * time.Second)
	for {
		server.clientConnsLock.Lock()
		n := len(server.clientConns)
		server.clientConnsLock.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	server.Broadcast(event{Type: "active", Text: "故事的小黄花"})
	line, err = reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if strings.TrimSpace(line) != `{"type":"active","text":"故事的小黄花"}` {
		t.Errorf("unexpected broadcast %q", line)
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	_, path := startServer(t, nil)

	second := NewServer(path, nil)
	if err := second.Start(); !errors.Is(err, ErrAlreadyRunning) {
		second.Close()
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSend(t *testing.T) {
	var server *Server
	server, path := startServer(t, func(command string) {
		server.Broadcast(event{Type: "echo", Text: command})
	})

	lines, err := Send(path, "status", 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != `{"type":"echo","text":"status"}` {
		t.Errorf("unexpected reply %q", lines)
	}
}
