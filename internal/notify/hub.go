package notify

import "sync"

const (
	TableTasks       = "tasks"
	TableComments    = "task_comments"
	TableAttachments = "task_attachments"
	TableServices    = "services"
)

// Change - уведомление об изменении строки
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// Hub - раздача уведомлений подписчикам внутри процесса
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

type Subscription struct {
	C <-chan Change

	c      chan Change
	tables map[string]bool
	hub    *Hub
	once   sync.Once
}

// Subscribe - без аргументов подписка на все таблицы
func (h *Hub) Subscribe(tables ...string) *Subscription {
	c := make(chan Change, 16)
	s := &Subscription{C: c, c: c, hub: h}
	if len(tables) > 0 {
		s.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			s.tables[t] = true
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish не блокируется: при переполненном буфере подписчик и так
// получит хотя бы одно непрочитанное уведомление
func (h *Hub) Publish(ch Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if s.tables != nil && !s.tables[ch.Table] {
			continue
		}
		select {
		case s.c <- ch:
		default:
		}
	}
}

// Len - число активных подписок
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close отписывает и закрывает канал, повторный вызов безопасен
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.c)
		s.hub.mu.Unlock()
	})
}
