package host

import (
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/linkme/pkg/httpclient"
)

// Memory is an in-process Environment whose location changes only through
// SetLocation, Navigate and ReplaceLocation.
type Memory struct {
	mu          sync.Mutex
	browserLike bool
	transport   httpclient.Transport
	location    string
	replaced    []string
	device      map[string]any
	subscribers map[uint64]func()
	nextID      uint64
}

var _ Environment = (*Memory)(nil)

// MemoryOption configures a Memory environment.
type MemoryOption func(*Memory)

// WithBrowserLike sets the value reported by IsBrowserLike. Default is false.
func WithBrowserLike(v bool) MemoryOption {
	return func(m *Memory) { m.browserLike = v }
}

// WithTransport sets the default transport.
func WithTransport(t httpclient.Transport) MemoryOption {
	return func(m *Memory) { m.transport = t }
}

// WithLocation sets the initial location.
func WithLocation(url string) MemoryOption {
	return func(m *Memory) { m.location = url }
}

// WithDevice replaces the device payload. "platform" is added when missing.
func WithDevice(device map[string]any) MemoryOption {
	return func(m *Memory) {
		if device != nil {
			m.device = maps.Clone(device)
		}
	}
}

// NewMemory creates a Memory environment.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		device:      map[string]any{"platform": PlatformWeb},
		subscribers: make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, ok := m.device["platform"]; !ok {
		m.device["platform"] = PlatformWeb
	}
	return m
}

func (m *Memory) IsBrowserLike() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browserLike
}

func (m *Memory) Transport() httpclient.Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transport
}

func (m *Memory) CurrentLocation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.location
}

// ReplaceLocation sets the location and records it without notifying subscribers.
func (m *Memory) ReplaceLocation(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = url
	m.replaced = append(m.replaced, url)
}

// SetLocation changes the location silently.
func (m *Memory) SetLocation(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = url
}

// Navigate changes the location and notifies every subscriber synchronously.
// A panicking subscriber does not prevent delivery to the others.
func (m *Memory) Navigate(url string) {
	m.mu.Lock()
	m.location = url
	callbacks := make([]func(), 0, len(m.subscribers))
	for _, id := range slices.Sorted(maps.Keys(m.subscribers)) {
		callbacks = append(callbacks, m.subscribers[id])
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		notify(fn)
	}
}

func (m *Memory) SubscribeToNavigation(onChange func()) func() {
	if onChange == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = onChange
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Memory) DeviceInfo(enabled bool) map[string]any {
	if !enabled {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.device)
}

// Replaced returns every URL passed to ReplaceLocation, oldest first.
func (m *Memory) Replaced() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.replaced)
}

// Subscribers returns the number of active navigation subscriptions.
func (m *Memory) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

func notify(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
