package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/pkg/metrics"
)

// EventService fans committed escrow events out to the ring buffer, the
// daily JSONL file, an optional repository and live listeners. Consumers
// never block the ledger.
type EventService struct {
	eventChan chan *model.EventRecord
	logFile   *os.File
	buffer    *eventBuffer
	repo      EventRepo

	mu        sync.RWMutex
	listeners map[int]func(*model.EventRecord)
	nextID    int
	done      chan struct{}
}

type EventRepo interface {
	Insert(ctx context.Context, rec *model.EventRecord) error
	List(ctx context.Context, filter model.EventFilter) ([]*model.EventRecord, error)
}

func NewEventService(logDir string, bufferSize int, repo EventRepo) (*EventService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	// 简单的按日轮转文件 (MVP)
	filename := filepath.Join(logDir, "events-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	svc := &EventService{
		eventChan: make(chan *model.EventRecord, bufferSize),
		logFile:   f,
		buffer:    newEventBuffer(bufferSize),
		repo:      repo,
		listeners: make(map[int]func(*model.EventRecord)),
		done:      make(chan struct{}),
	}

	// 启动消费者 goroutine
	go svc.processEvents()

	return svc, nil
}

// Attach subscribes the service to every receipt the ledger publishes.
func (s *EventService) Attach(l *ledger.Ledger) {
	l.Subscribe(func(r ledger.Receipt) {
		for _, lg := range r.Logs {
			ev, ok := lg.Event.(escrow.Event)
			if !ok {
				continue
			}
			s.Publish(model.NewEventRecord(ev))
		}
	})
}

// Publish records rec. It is called with the ledger lock held and must not
// block.
func (s *EventService) Publish(rec *model.EventRecord) {
	s.buffer.Add(rec)
	s.notify(rec)
	select {
	case s.eventChan <- rec:
	default:
		// 缓冲区满，丢弃事件以保护主流程
		metrics.EventsDropped.Inc()
		logger.Warn("event pipeline full, dropping event", "id", rec.ID, "kind", rec.Kind)
	}
}

// Listen registers fn for every future event and returns a function that
// removes it. fn runs on the publishing goroutine.
func (s *EventService) Listen(fn func(*model.EventRecord)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *EventService) notify(rec *model.EventRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.listeners {
		fn(rec)
	}
}

// List prefers the repository and falls back to the in-memory ring.
func (s *EventService) List(ctx context.Context, filter model.EventFilter) ([]*model.EventRecord, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, filter)
		if err == nil {
			return records, nil
		}
		logger.LogError(ctx, err, "event repository list failed, serving from memory")
	}
	return s.buffer.List(filter), nil
}

func (s *EventService) processEvents() {
	defer close(s.done)
	encoder := json.NewEncoder(s.logFile)
	for rec := range s.eventChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), rec); err != nil {
				logger.Error("failed to persist event", "id", rec.ID, "error", err)
			}
		}
		if err := encoder.Encode(rec); err != nil {
			logger.Error("failed to write event log", "id", rec.ID, "error", err)
		}
	}
}

// Close drains pending events and closes the log file. Publish must not be
// called afterwards.
func (s *EventService) Close() {
	close(s.eventChan)
	<-s.done
	s.logFile.Close()
}

type eventBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.EventRecord
	nextIndex int
}

func newEventBuffer(maxSize int) *eventBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &eventBuffer{
		maxSize: maxSize,
		records: make([]*model.EventRecord, 0, maxSize),
	}
}

func (b *eventBuffer) Add(rec *model.EventRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, rec)
		return
	}
	b.records[b.nextIndex] = rec
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

// List returns matching records newest first.
func (b *eventBuffer) List(filter model.EventFilter) []*model.EventRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := filter.Limit
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.EventRecord, 0, limit)
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		rec := b.records[idx]
		if rec == nil || !filter.Match(rec) {
			continue
		}
		results = append(results, rec)
		if len(results) >= limit {
			break
		}
	}
	return results
}
