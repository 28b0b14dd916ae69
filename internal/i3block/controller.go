package i3block

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// sigrtmin Linux 上 i3blocks 使用的实时信号基准（SIGRTMIN = 34）
const sigrtmin = 34

// pidLookup 查找 i3blocks 进程输出，便于测试替换
type pidLookup func() ([]byte, error)

func pgrep() ([]byte, error) {
	return exec.Command("pgrep", "-x", "i3blocks").Output()
}

// Controller manages i3block process monitoring and signal sending
type Controller struct {
	pid       int
	pidMutex  sync.RWMutex
	ticker    *time.Ticker
	stopChan  chan struct{}
	isRunning bool
	runMutex  sync.Mutex
	lookup    pidLookup
	signal    syscall.Signal
}

// NewController creates a new i3block controller. signal is the block's
// "signal" value from the i3blocks config; it is sent as SIGRTMIN+signal.
func NewController(signal int) *Controller {
	return &Controller{
		pid:      -1,
		stopChan: make(chan struct{}),
		lookup:   pgrep,
		signal:   syscall.Signal(sigrtmin + signal),
	}
}

// Start begins monitoring i3block PID every 10 seconds
func (c *Controller) Start() error {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if c.isRunning {
		return fmt.Errorf("controller is already running")
	}

	if err := c.refreshPID(); err != nil {
		log.Debug().Err(err).Msg("i3blocks not found yet")
	}

	c.ticker = time.NewTicker(10 * time.Second)
	c.isRunning = true

	go c.monitorLoop()

	log.Info().Msg("i3block controller started")
	return nil
}

// Stop stops the controller
func (c *Controller) Stop() {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if !c.isRunning {
		return
	}

	close(c.stopChan)
	c.ticker.Stop()
	c.isRunning = false

	log.Info().Msg("i3block controller stopped")
}

// monitorLoop runs the periodic PID refresh
func (c *Controller) monitorLoop() {
	for {
		select {
		case <-c.ticker.C:
			if err := c.refreshPID(); err != nil {
				log.Debug().Err(err).Msg("Failed to refresh i3block PID")
			}
		case <-c.stopChan:
			return
		}
	}
}

// refreshPID updates the stored PID of i3block process
func (c *Controller) refreshPID() error {
	output, err := c.lookup()
	if err != nil {
		c.setPID(-1)
		return fmt.Errorf("i3blocks process not found: %w", err)
	}

	// If multiple PIDs, take the first one
	first := strings.TrimSpace(strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)[0])
	if first == "" {
		c.setPID(-1)
		return fmt.Errorf("i3blocks process not found")
	}

	pid, err := strconv.Atoi(first)
	if err != nil {
		return fmt.Errorf("failed to parse PID: %v", err)
	}
	c.setPID(pid)
	return nil
}

func (c *Controller) setPID(pid int) {
	c.pidMutex.Lock()
	oldPID := c.pid
	c.pid = pid
	c.pidMutex.Unlock()

	if oldPID != pid {
		log.Debug().Int("old_pid", oldPID).Int("pid", pid).Msg("i3block PID updated")
	}
}

// GetPID returns the current stored PID
func (c *Controller) GetPID() int {
	c.pidMutex.RLock()
	defer c.pidMutex.RUnlock()
	return c.pid
}

// Notify sends the configured refresh signal to i3blocks
func (c *Controller) Notify() error {
	pid := c.GetPID()
	if pid <= 0 {
		return fmt.Errorf("invalid PID: %d, i3block process not found", pid)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %v", pid, err)
	}

	if err := process.Signal(c.signal); err != nil {
		return fmt.Errorf("failed to send signal %d to process %d: %v", c.signal, pid, err)
	}
	return nil
}

// IsRunning returns whether the controller is currently running
func (c *Controller) IsRunning() bool {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()
	return c.isRunning
}
