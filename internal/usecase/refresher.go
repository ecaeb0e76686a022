package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/notify"
)

// SnapshotLoader - полное чтение задач и отделов
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (*entity.Snapshot, error)
}

// Refresher пересчитывает панель по уведомлениям об изменениях.
// Одновременно выполняется не больше одного чтения и ждет не больше одного повторного.
type Refresher struct {
	loader    SnapshotLoader
	analytics *Analytics
	timeout   time.Duration

	mu        sync.Mutex
	running   bool
	pending   bool
	current   *entity.Dashboard
	refreshes int
	hooks     []func(*entity.Dashboard)
	watchers  map[chan *entity.Dashboard]struct{}
	wg        sync.WaitGroup
}

func NewRefresher(loader SnapshotLoader, analytics *Analytics, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Refresher{
		loader:    loader,
		analytics: analytics,
		timeout:   timeout,
		watchers:  make(map[chan *entity.Dashboard]struct{}),
	}
}

// OnUpdate - вызывается после каждого пересчета, в том числе неудачного
func (r *Refresher) OnUpdate(fn func(*entity.Dashboard)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Seed - последняя известная панель до первого чтения, например из кэша
func (r *Refresher) Seed(d *entity.Dashboard) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		seeded := *d
		seeded.Stale = true
		r.current = &seeded
	}
}

// Current - никогда не nil
func (r *Refresher) Current() *entity.Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked()
}

func (r *Refresher) currentLocked() *entity.Dashboard {
	if r.current == nil {
		d := r.analytics.Dashboard(&entity.Snapshot{})
		d.Stale = true
		return d
	}
	return r.current
}

// Refreshes - число завершенных пересчетов
func (r *Refresher) Refreshes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshes
}

// Trigger запускает пересчет или откладывает один повторный
func (r *Refresher) Trigger() {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.wg.Add(1)
	r.mu.Unlock()

	go r.loop()
}

// Wait дожидается завершения текущего цикла пересчета
func (r *Refresher) Wait() {
	r.wg.Wait()
}

func (r *Refresher) loop() {
	defer r.wg.Done()
	for {
		r.refreshOnce()

		r.mu.Lock()
		if !r.pending {
			r.running = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}

func (r *Refresher) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	snap, err := r.loader.Snapshot(ctx)

	r.mu.Lock()
	if err != nil {
		stale := *r.currentLocked()
		stale.Stale = true
		stale.Error = err.Error()
		r.current = &stale
	} else {
		r.current = r.analytics.Dashboard(snap)
	}
	r.refreshes++
	d := r.current
	hooks := append([]func(*entity.Dashboard){}, r.hooks...)
	for ch := range r.watchers {
		offer(ch, d)
	}
	r.mu.Unlock()

	if err != nil {
		log.Printf("❌ Не удалось обновить панель: %v", err)
	}
	for _, h := range hooks {
		h(d)
	}
}

// offer - в канале остается только самая свежая панель
func offer(ch chan *entity.Dashboard, d *entity.Dashboard) {
	select {
	case ch <- d:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- d:
	default:
	}
}

// Watch - поток обновлений панели, cancel обязателен
func (r *Refresher) Watch() (<-chan *entity.Dashboard, func()) {
	ch := make(chan *entity.Dashboard, 1)

	r.mu.Lock()
	r.watchers[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.watchers, ch)
			r.mu.Unlock()
		})
	}
}

// Run пересчитывает панель на каждое уведомление до отмены ctx
func (r *Refresher) Run(ctx context.Context, sub *notify.Subscription) {
	defer sub.Close()

	r.Trigger()
	for {
		select {
		case <-ctx.Done():
			r.Wait()
			return
		case _, ok := <-sub.C:
			if !ok {
				return
			}
			r.Trigger()
		}
	}
}
