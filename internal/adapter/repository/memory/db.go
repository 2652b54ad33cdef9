// Package memory implements the repository ports on process memory. Every
// transaction runs under one lock, so the atomicity the Firestore adapters get
// from RunTransaction holds here too. Used by tests and STORE_BACKEND=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
)

type membershipKey struct {
	userID string
	rel    entity.Relation
	itemID string
}

type DB struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time

	items         map[entity.ItemRef]*entity.Item
	memberships   map[membershipKey]*entity.Membership
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	notifications map[string]map[string]*entity.Notification

	watchers map[*watcher]struct{}
}

type Option func(*DB)

// WithClock replaces time.Now as the source of server timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

func NewDB(opts ...Option) *DB {
	db := &DB{
		now:           time.Now,
		items:         make(map[entity.ItemRef]*entity.Item),
		memberships:   make(map[membershipKey]*entity.Membership),
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		notifications: make(map[string]map[string]*entity.Notification),
		watchers:      make(map[*watcher]struct{}),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// serverTime returns a commit timestamp. Like the real store it never repeats,
// which keeps timestamp orderings total. Callers hold mu.
func (db *DB) serverTime() time.Time {
	t := db.now().UTC()
	if !t.After(db.last) {
		t = db.last.Add(time.Nanosecond)
	}
	db.last = t
	return t
}

// ActiveWatchers is the number of live listeners.
func (db *DB) ActiveWatchers() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.watchers)
}

type watcher struct {
	dirty chan struct{}
}

// commit wakes every watcher after a write. Callers hold mu.
func (db *DB) commit() {
	for w := range db.watchers {
		select {
		case w.dirty <- struct{}{}:
		default:
		}
	}
}

// watch runs eval once immediately and again after every commit, on a
// dedicated goroutine. Bursts of commits coalesce into one evaluation.
func (db *DB) watch(ctx context.Context, eval func()) repository.Subscription {
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{dirty: make(chan struct{}, 1)}
	w.dirty <- struct{}{}

	db.mu.Lock()
	db.watchers[w] = struct{}{}
	db.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			db.mu.Lock()
			delete(db.watchers, w)
			db.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.dirty:
				if ctx.Err() != nil {
					return
				}
				eval()
			}
		}
	}()

	var once sync.Once
	return repository.StopFunc(func() {
		once.Do(func() {
			cancel()
			<-done
		})
	})
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneItem(item *entity.Item) *entity.Item {
	c := *item
	c.LastClickDate = cloneTime(item.LastClickDate)
	c.BoostStartTime = cloneTime(item.BoostStartTime)
	c.BoostEndTime = cloneTime(item.BoostEndTime)
	return &c
}

func cloneConversation(conv *entity.Conversation) *entity.Conversation {
	c := *conv
	c.Participants = append([]string(nil), conv.Participants...)
	c.VisibleTo = append([]string(nil), conv.VisibleTo...)
	c.UnreadCounts = make(map[string]int64, len(conv.UnreadCounts))
	for k, v := range conv.UnreadCounts {
		c.UnreadCounts[k] = v
	}
	c.LastReadTimestamps = make(map[string]time.Time, len(conv.LastReadTimestamps))
	for k, v := range conv.LastReadTimestamps {
		c.LastReadTimestamps[k] = v
	}
	return &c
}
