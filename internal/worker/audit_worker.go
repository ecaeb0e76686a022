package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/infrastructure/client"
	"github.com/St1cky1/service-tasks/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// errMalformed - сообщение не разбирается, повторять бессмысленно
var errMalformed = errors.New("malformed task event")

// AuditWorker переносит события задач из очереди в журнал task_audit
type AuditWorker struct {
	url       string
	queueName string
	auditRepo repository.ITaskAuditRepository
	retry     time.Duration
}

func NewAuditWorker(url, queueName string, auditRepo repository.ITaskAuditRepository) *AuditWorker {
	return &AuditWorker{
		url:       url,
		queueName: queueName,
		auditRepo: auditRepo,
		retry:     5 * time.Second,
	}
}

// Start потребляет очередь до отмены ctx, переподключаясь при обрыве
func (w *AuditWorker) Start(ctx context.Context) error {
	for {
		err := w.runWorker(ctx)
		if ctx.Err() != nil {
			log.Println("🛑 Audit Worker остановлен")
			return nil
		}
		log.Printf("❌ Audit Worker ошибка: %v, переподключение через %s", err, w.retry)

		select {
		case <-ctx.Done():
			log.Println("🛑 Audit Worker остановлен")
			return nil
		case <-time.After(w.retry):
		}
	}
}

func (w *AuditWorker) runWorker(ctx context.Context) error {
	// Создаем отдельное соединение для consumer'а
	conn, err := amqp.Dial(w.url)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("ошибка создания канала: %w", err)
	}
	defer channel.Close()

	if _, err := client.DeclareQueue(channel, w.queueName); err != nil {
		return fmt.Errorf("ошибка объявления очереди: %w", err)
	}

	msgs, err := channel.Consume(
		w.queueName,    // queue
		"audit_worker", // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("ошибка создания consumer: %w", err)
	}

	log.Println("✅ Audit Worker запущен. Ожидаем сообщения...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("канал сообщений закрыт")
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *AuditWorker) handle(ctx context.Context, msg amqp.Delivery) {
	err := w.Process(ctx, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, errMalformed):
		log.Printf("❌ %v: %s", err, msg.Body)
		msg.Nack(false, false) // Не возвращаем в очередь
	default:
		log.Printf("❌ Ошибка сохранения аудита: %v", err)
		msg.Nack(false, true) // Возвращаем в очередь для повторной обработки
	}
}

// Process сохраняет одно событие в журнал
func (w *AuditWorker) Process(ctx context.Context, body []byte) error {
	var event entity.TaskEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if event.TaskID == "" || event.Action == "" {
		return fmt.Errorf("%w: task_id and action are required", errMalformed)
	}

	audit, err := ToTaskAudit(&event)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	if err := w.auditRepo.Create(ctx, audit); err != nil {
		return err
	}

	log.Printf("✅ Аудит сохранен: %s задача %s", audit.Action, audit.TaskID)
	return nil
}

// ToTaskAudit - значения событий хранятся как JSON строки
func ToTaskAudit(event *entity.TaskEvent) (*entity.TaskAudit, error) {
	oldValues, err := jsonOrNil(event.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := jsonOrNil(event.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := jsonOrNil(event.Changes)
	if err != nil {
		return nil, err
	}

	changedAt := event.Timestamp
	if changedAt.IsZero() {
		changedAt = time.Now()
	}

	return &entity.TaskAudit{
		ActorID:   event.ActorID,
		Action:    event.Action,
		TaskID:    event.TaskID,
		ServiceID: event.ServiceID,
		OldValues: oldValues,
		NewValues: newValues,
		Changes:   changes,
		ChangedAt: changedAt,
	}, nil
}

func jsonOrNil(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
