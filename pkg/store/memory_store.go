package store

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ideaforge/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local runs
// without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	email      map[string]string // email -> user ID
	assistants map[string]domain.Assistant
	order      []string // assistant insertion order
	threads    map[string]domain.Thread
	messages   []domain.Message
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		email:      make(map[string]string),
		assistants: make(map[string]domain.Assistant),
		threads:    make(map[string]domain.Thread),
	}
}

// users

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != "" && prev.Email != u.Email {
		delete(m.email, strings.ToLower(prev.Email))
	}
	m.users[u.ID] = u
	if u.Email != "" {
		m.email[strings.ToLower(u.Email)] = u.ID
	}
	return nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[strings.ToLower(email)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[strings.ToLower(email)]
	return ok, nil
}

func (m *MemoryStore) FindAnonymousUser(deviceID string, platform domain.Platform) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.IsAnonymous && u.DeviceID == deviceID && u.Platform == platform {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

// assistants

func (m *MemoryStore) SaveAssistant(a domain.Assistant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.assistants[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	m.assistants[a.ID] = a
	return nil
}

func (m *MemoryStore) GetActiveAssistant(appID string) (domain.Assistant, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		a := m.assistants[id]
		if a.IsActive && (a.ID == appID || a.AppType == appID) {
			return a, true, nil
		}
	}
	return domain.Assistant{}, false, nil
}

func (m *MemoryStore) GetAssistant(id string) (domain.Assistant, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assistants[id]
	return a, ok, nil
}

func (m *MemoryStore) ListActiveAssistants() ([]domain.Assistant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Assistant, 0, len(m.order))
	for _, id := range m.order {
		if a, ok := m.assistants[id]; ok && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) AssistantCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assistants), nil
}

// threads

func (m *MemoryStore) CreateThread(t domain.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID] = cloneThread(t)
	return nil
}

func (m *MemoryStore) GetThreadByOwner(id, userID string) (domain.Thread, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[id]
	if !ok || t.UserID != userID {
		return domain.Thread{}, false, nil
	}
	return cloneThread(t), true, nil
}

func (m *MemoryStore) ListThreadsByUser(userID string) ([]domain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Thread, 0)
	for _, t := range m.threads {
		if t.UserID == userID {
			out = append(out, cloneThread(t))
		}
	}
	sortThreadsByUpdatedAt(out)
	return out, nil
}

func (m *MemoryStore) ListRecentThreads(appType string, limit int) ([]domain.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Thread, 0)
	for _, t := range m.threads {
		if appType != "" && t.Metadata.AppType != appType {
			continue
		}
		out = append(out, cloneThread(t))
	}
	sortThreadsByUpdatedAt(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) FindThreadByShareID(shareID string) (domain.Thread, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.threads {
		for _, shared := range t.Metadata.UserActions.Shared {
			if shared.ShareID == shareID {
				return cloneThread(t), true, nil
			}
		}
	}
	return domain.Thread{}, false, nil
}

func (m *MemoryStore) DeleteThread(id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(m.threads, id)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ThreadID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return true, nil
}

func (m *MemoryStore) UpdateThreadMetadata(id string, apply func(*domain.ThreadMetadata) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return ErrNotFound
	}
	meta := t.Metadata
	if err := apply(&meta); err != nil {
		return err
	}
	t.Metadata = meta
	t.UpdatedAt = time.Now().UTC()
	m.threads[id] = cloneThread(t)
	return nil
}

// messages

func (m *MemoryStore) AppendMessagePair(userMsg, assistantMsg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, userMsg, assistantMsg)
	return nil
}

func (m *MemoryStore) ListCardMessages(threadID, cardID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Message, 0)
	for _, msg := range m.messages {
		if msg.ThreadID == threadID && msg.CardID == cardID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// cloneThread deep-copies via JSON so callers cannot alias the stored
// metadata document.
func cloneThread(t domain.Thread) domain.Thread {
	raw, err := json.Marshal(t)
	if err != nil {
		return t
	}
	var out domain.Thread
	if err := json.Unmarshal(raw, &out); err != nil {
		return t
	}
	return out
}

func sortThreadsByUpdatedAt(threads []domain.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
}
