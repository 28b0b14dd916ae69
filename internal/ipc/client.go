package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Send 连接服务端发送一条命令，并收集 wait 时间内收到的事件行
func Send(socketPath, command string, wait time.Duration) ([]string, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", socketPath, err)
	}
	defer conn.Close()

	if command != "" {
		if _, err := conn.Write([]byte(command + "\n")); err != nil {
			return nil, fmt.Errorf("send command: %w", err)
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		return lines, err
	}
	return lines, nil
}
