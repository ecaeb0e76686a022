package worker

import (
	"context"
	"log"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/usecase"
)

// OverdueWorker публикует событие overdue один раз на задачу и дедлайн
type OverdueWorker struct {
	loader   usecase.SnapshotLoader
	events   usecase.EventPublisher
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	// notified - задача и дедлайн, о которых уже сообщили
	notified map[string]time.Time
}

func NewOverdueWorker(loader usecase.SnapshotLoader, events usecase.EventPublisher, interval, timeout time.Duration) *OverdueWorker {
	return &OverdueWorker{
		loader:   loader,
		events:   events,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
}

func (w *OverdueWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Check(ctx); err != nil {
			log.Printf("❌ Проверка просроченных задач: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check возвращает число отправленных уведомлений
func (w *OverdueWorker) Check(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	snap, err := w.loader.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	now := w.now()
	overdue := make(map[string]bool)
	sent := 0
	for i := range snap.Tasks {
		task := &snap.Tasks[i]
		if !task.IsOverdue(now) {
			continue
		}
		overdue[task.ID] = true
		if at, ok := w.notified[task.ID]; ok && at.Equal(*task.Deadline) {
			continue
		}

		event := &entity.TaskEvent{
			Action:    entity.ActionOverdue,
			TaskID:    task.ID,
			ServiceID: task.ServiceID,
			NewValues: map[string]any{
				"title":    task.Title,
				"status":   task.Status,
				"deadline": task.Deadline,
			},
			Timestamp: now,
		}
		if err := w.events.PublishTaskEvent(ctx, event); err != nil {
			return sent, err
		}
		w.notified[task.ID] = *task.Deadline
		sent++
	}

	// Задача снова станет просроченной после нового дедлайна или смены статуса
	for id := range w.notified {
		if !overdue[id] {
			delete(w.notified, id)
		}
	}

	if sent > 0 {
		log.Printf("✅ Отправлено уведомлений о просрочке: %d", sent)
	}
	return sent, nil
}
