package domain

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// WildcardAddr is the address a listener binds to when the config
// does not name one.
const WildcardAddr = "0.0.0.0"

var ErrInvalidPort = errors.New("invalid port")

// Worker is a backend endpoint eligible to receive forwarded traffic.
// Workers have no identity of their own, within a mapping they are
// looked up by their (Addr, Port) pair.
type Worker struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`

	// Weight is only meaningful to weighted algorithms. Always >= 1.
	Weight int `yaml:"weight"`
}

func (w Worker) HostPort() string {
	return net.JoinHostPort(w.Addr, strconv.Itoa(w.Port))
}

func (w Worker) String() string {
	return fmt.Sprintf("%s (weight %d)", w.HostPort(), w.Weight)
}

// Mapping is a local listener and the ordered list of workers it
// forwards to.
//
// A Mapping is not safe for concurrent use. Once it is handed to the
// dispatch runtime, the runtime has to serialize calls to AddWorker and
// RemoveWorker itself.
type Mapping struct {
	localAddr string
	localPort int
	workers   []Worker
}

// NewMapping builds a mapping around workers. The slice is kept as is,
// it is not copied.
func NewMapping(localAddr string, localPort int, workers []Worker) *Mapping {
	return &Mapping{
		localAddr: localAddr,
		localPort: localPort,
		workers:   workers,
	}
}

// LocalAddr returns the listen address. Empty means all interfaces.
func (m *Mapping) LocalAddr() string {
	return m.localAddr
}

func (m *Mapping) LocalPort() int {
	return m.localPort
}

func (m *Mapping) Workers() []Worker {
	return m.workers
}

// ListenerArgs returns what the runtime needs to open the listening
// socket, in address, port, workers order.
func (m *Mapping) ListenerArgs() (string, int, []Worker) {
	return m.localAddr, m.localPort, m.workers
}

// ListenAddress returns the host:port to bind, with an empty address
// replaced by WildcardAddr.
func (m *Mapping) ListenAddress() string {
	addr := m.localAddr
	if addr == "" {
		addr = WildcardAddr
	}
	return net.JoinHostPort(addr, strconv.Itoa(m.localPort))
}

// AddWorker appends a worker with the default weight of 1.
func (m *Mapping) AddWorker(addr string, port int) {
	m.workers = append(m.workers, Worker{Addr: addr, Port: port, Weight: 1})
}

// RemoveWorker drops every worker matching addr and port. The worker list
// is replaced by a new slice, so slices previously returned by Workers are
// left untouched. It reports the removed worker, or false if none matched.
func (m *Mapping) RemoveWorker(addr string, port int) (Worker, bool) {
	var (
		removed Worker
		found   bool
	)
	kept := make([]Worker, 0, len(m.workers))
	for _, w := range m.workers {
		if w.Addr == addr && w.Port == port {
			removed, found = w, true
			continue
		}
		kept = append(kept, w)
	}
	m.workers = kept
	return removed, found
}

func (m *Mapping) String() string {
	return fmt.Sprintf("%s -> %v", m.ListenAddress(), m.workers)
}

// MarshalYAML implements yaml.Marshaler.
func (m *Mapping) MarshalYAML() (interface{}, error) {
	return struct {
		LocalAddr string   `yaml:"local_addr"`
		LocalPort int      `yaml:"local_port"`
		Workers   []Worker `yaml:"workers"`
	}{m.localAddr, m.localPort, m.workers}, nil
}

// ParsePort converts a port as written in a config file.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w %q: not a number", ErrInvalidPort, s)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%w %q: out of range", ErrInvalidPort, s)
	}
	return port, nil
}
