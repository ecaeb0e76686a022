package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/redis/rueidis"
)

func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress:  []string{addr},
			DisableCache: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return client, nil
}

// DashboardCache - последняя панель в Redis, переживает перезапуск процесса
type DashboardCache struct {
	client rueidis.Client
	key    string
	ttl    time.Duration
}

func NewDashboardCache(client rueidis.Client, key string, ttl time.Duration) *DashboardCache {
	return &DashboardCache{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (c *DashboardCache) Save(ctx context.Context, d *entity.Dashboard) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}

	var cmd rueidis.Completed
	if c.ttl >= time.Second {
		cmd = c.client.B().Set().Key(c.key).Value(string(body)).ExSeconds(int64(c.ttl / time.Second)).Build()
	} else {
		cmd = c.client.B().Set().Key(c.key).Value(string(body)).Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

// Load - nil без ошибки, если в кэше пусто
func (c *DashboardCache) Load(ctx context.Context) (*entity.Dashboard, error) {
	cmd := c.client.B().Get().Key(c.key).Build()
	body, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var d entity.Dashboard
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("invalid cached dashboard: %w", err)
	}
	return &d, nil
}

// Close закрывает соединение с Redis, кэш владеет клиентом
func (c *DashboardCache) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
