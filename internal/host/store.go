package host

import (
	"context"
	"sync"

	"github.com/blues/raise/internal/event"
	"github.com/blues/raise/internal/factory"
	"github.com/blues/raise/internal/raise"
	"github.com/ethereum/go-ethereum/common"
)

// Store 持久化端口，每次调用是一个事务
type Store interface {
	SaveRaise(ctx context.Context, s raise.Snapshot, events []event.Event) error
	// SaveFactory deployed 为本次新部署实例的初始快照，可为 nil
	SaveFactory(ctx context.Context, s factory.Snapshot, deployed *raise.Snapshot, events []event.Event) error
	// LoadFactory 没有记录时返回 nil
	LoadFactory(ctx context.Context, address common.Address) (*factory.Snapshot, error)
	LoadRaises(ctx context.Context) ([]raise.Snapshot, error)
}

// MemoryStore 进程内存储
type MemoryStore struct {
	mu      sync.Mutex
	factory *factory.Snapshot
	raises  map[common.Address]raise.Snapshot
	order   []common.Address
	events  []event.Event

	// FailWith 非 nil 时所有写入返回该错误
	FailWith error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{raises: make(map[common.Address]raise.Snapshot)}
}

func (m *MemoryStore) putRaise(s raise.Snapshot) {
	if _, ok := m.raises[s.Address]; !ok {
		m.order = append(m.order, s.Address)
	}
	m.raises[s.Address] = s
}

func (m *MemoryStore) SaveRaise(_ context.Context, s raise.Snapshot, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.putRaise(s)
	m.events = append(m.events, events...)
	return nil
}

func (m *MemoryStore) SaveFactory(_ context.Context, s factory.Snapshot, deployed *raise.Snapshot, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.factory = &s
	if deployed != nil {
		m.putRaise(*deployed)
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *MemoryStore) LoadFactory(_ context.Context, address common.Address) (*factory.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.factory == nil || m.factory.Address != address {
		return nil, nil
	}
	s := *m.factory
	return &s, nil
}

func (m *MemoryStore) LoadRaises(_ context.Context) ([]raise.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]raise.Snapshot, 0, len(m.order))
	for _, a := range m.order {
		out = append(out, m.raises[a])
	}
	return out, nil
}

// Events 已持久化的事件
func (m *MemoryStore) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.events...)
}

func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWith = err
}
