package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/St1cky1/service-tasks/internal/notify"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChannelTaskChanges - канал pg_notify из триггеров миграции
const ChannelTaskChanges = "task_changes"

// ChangeListener пересылает уведомления PostgreSQL в hub
type ChangeListener struct {
	pool  *pgxpool.Pool
	hub   *notify.Hub
	retry time.Duration
}

func NewChangeListener(pool *pgxpool.Pool, hub *notify.Hub) *ChangeListener {
	return &ChangeListener{
		pool:  pool,
		hub:   hub,
		retry: 5 * time.Second,
	}
}

// ParseChange разбирает payload триггера notify_task_change
func ParseChange(payload string) (notify.Change, error) {
	var change notify.Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return notify.Change{}, fmt.Errorf("invalid change payload: %w", err)
	}
	if change.Table == "" {
		return notify.Change{}, errors.New("invalid change payload: table is empty")
	}
	return change, nil
}

// Run слушает канал до отмены ctx, переподключаясь при ошибках
func (l *ChangeListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("❌ LISTEN %s: %v, переподключение через %s", ChannelTaskChanges, err, l.retry)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		unlistenCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = conn.Exec(unlistenCtx, "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+ChannelTaskChanges); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Printf("✅ Подписка на %s установлена", ChannelTaskChanges)

	// Пропущенные за время переподключения изменения покрывает общий пересчет
	l.hub.Publish(notify.Change{Table: notify.TableTasks, Op: "resync"})

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		change, err := ParseChange(n.Payload)
		if err != nil {
			log.Printf("❌ %v", err)
			continue
		}
		l.hub.Publish(change)
	}
}
