// Package tor manages per-tab TOR processes. Each Ghost tab gets its own
// tor instance with a dedicated SOCKS port and data directory, so circuits
// are never shared between tabs.
package tor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

var (
	// ErrNotInstalled means no tor binary was found on PATH.
	ErrNotInstalled = errors.New("tor: binary not installed")
	// ErrNotRunning means no instance exists for the given tab.
	ErrNotRunning = errors.New("tor: not running for tab")
)

// Status describes one tab's TOR instance.
type Status struct {
	Running            bool `json:"running"`
	Bootstrapped       bool `json:"bootstrapped"`
	Progress           int  `json:"progress"` // 0-100
	CircuitEstablished bool `json:"circuit_established"`
	SocksPort          int  `json:"socks_port,omitempty"`
}

// Supervisor starts and stops per-tab TOR processes.
type Supervisor struct {
	binary  string
	dataDir string
	logger  *slog.Logger

	mu        sync.Mutex
	instances map[string]*instance
}

type instance struct {
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	socksPort int

	mu     sync.Mutex
	status Status
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBinary overrides the tor binary name or path.
func WithBinary(bin string) Option {
	return func(s *Supervisor) { s.binary = bin }
}

// WithLogger sets the logger for bootstrap progress and process exits.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// NewSupervisor creates a Supervisor writing instance data under dataDir.
func NewSupervisor(dataDir string, opts ...Option) *Supervisor {
	s := &Supervisor{
		binary:    "tor",
		dataDir:   dataDir,
		logger:    slog.Default(),
		instances: make(map[string]*instance),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartForTab launches a TOR instance for the tab, or returns the current
// status if one is already running. The returned status reflects the
// moment of the call; bootstrap progress arrives asynchronously and is
// visible through Status.
func (s *Supervisor) StartForTab(ctx context.Context, tabID string) (Status, error) {
	bin, err := exec.LookPath(s.binary)
	if err != nil {
		return Status{}, ErrNotInstalled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.instances[tabID]; ok {
		return inst.snapshot(), nil
	}

	port, err := freePort()
	if err != nil {
		return Status{}, fmt.Errorf("tor: no available port: %w", err)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, bin,
		"--SocksPort", strconv.Itoa(port),
		"--DataDirectory", filepath.Join(s.dataDir, "tor-"+tabID),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return Status{}, fmt.Errorf("tor: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return Status{}, fmt.Errorf("tor: start: %w", err)
	}

	inst := &instance{
		cmd:       cmd,
		cancel:    cancel,
		socksPort: port,
		status: Status{
			Running:   true,
			SocksPort: port,
		},
	}
	s.instances[tabID] = inst

	go s.watchBootstrap(tabID, inst, stdout)
	go s.reap(tabID, inst)

	s.logger.Info("tor started", "tab_id", tabID, "socks_port", port)
	return inst.snapshot(), nil
}

// StopForTab kills the tab's TOR instance.
func (s *Supervisor) StopForTab(tabID string) error {
	s.mu.Lock()
	inst, ok := s.instances[tabID]
	if ok {
		delete(s.instances, tabID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotRunning
	}
	inst.cancel()
	s.logger.Info("tor stopped", "tab_id", tabID)
	return nil
}

// StopAll kills every running instance. Called on shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	instances := s.instances
	s.instances = make(map[string]*instance)
	s.mu.Unlock()

	for tabID, inst := range instances {
		inst.cancel()
		s.logger.Info("tor stopped", "tab_id", tabID)
	}
}

// Status returns the current status for a tab, or ok=false if no
// instance exists.
func (s *Supervisor) Status(tabID string) (Status, bool) {
	s.mu.Lock()
	inst, ok := s.instances[tabID]
	s.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	return inst.snapshot(), true
}

// SocksProxy returns the socks5:// proxy URL for a tab, or ok=false if
// no instance exists.
func (s *Supervisor) SocksProxy(tabID string) (string, bool) {
	s.mu.Lock()
	inst, ok := s.instances[tabID]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("socks5://127.0.0.1:%d", inst.socksPort), true
}

func (s *Supervisor) watchBootstrap(tabID string, inst *instance, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		progress, ok := parseBootstrapLine(scanner.Text())
		if !ok {
			continue
		}
		inst.mu.Lock()
		inst.status.Progress = progress
		if progress >= 100 {
			inst.status.Bootstrapped = true
			inst.status.CircuitEstablished = true
		}
		inst.mu.Unlock()
		s.logger.Debug("tor bootstrap", "tab_id", tabID, "progress", progress)
	}
}

func (s *Supervisor) reap(tabID string, inst *instance) {
	err := inst.cmd.Wait()

	inst.mu.Lock()
	inst.status.Running = false
	inst.mu.Unlock()

	s.mu.Lock()
	if cur, ok := s.instances[tabID]; ok && cur == inst {
		delete(s.instances, tabID)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("tor exited", "tab_id", tabID, "error", err)
	}
}

func (i *instance) snapshot() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

var bootstrapRe = regexp.MustCompile(`Bootstrapped (\d+)%`)

// parseBootstrapLine extracts the progress percentage from a tor log line
// like "May 01 12:00:00.000 [notice] Bootstrapped 85% (ap_conn): ...".
func parseBootstrapLine(line string) (int, bool) {
	m := bootstrapRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// freePort asks the kernel for an unused loopback TCP port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
