package kv

import (
	"context"
	"sync"
)

// Memory is a process-local Mirror and Bus used by the memory mirror driver
// and by tests. It mimics the single-writer discipline of browser storage:
// one value per key, visible to readers after the write returns.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	subMu sync.Mutex
	subs  map[string]map[int]chan string
	next  int
}

// NewMemory returns an empty in-process mirror.
func NewMemory() *Memory {
	return &Memory{
		values: map[string]string{},
		subs:   map[string]map[int]chan string{},
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Publish fans the payload out to every subscriber of the channel. Full
// subscriber buffers drop the message.
func (m *Memory) Publish(_ context.Context, channel, payload string) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered listener on the channel. The cancel func
// removes the listener and closes its channel.
func (m *Memory) Subscribe(_ context.Context, channel string, buffer int) (<-chan string, func(), error) {
	if buffer <= 0 {
		buffer = 1
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.next
	m.next++
	ch := make(chan string, buffer)
	if m.subs[channel] == nil {
		m.subs[channel] = map[int]chan string{}
	}
	m.subs[channel][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subs[channel], id)
			close(ch)
		})
	}

	return ch, cancel, nil
}
