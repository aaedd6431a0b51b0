package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/logging"
)

type userFetcher interface {
	FetchUsers(ctx context.Context) ([]domain.UserFields, error)
}

// Snapshot is a read-only view of the store state.
type Snapshot struct {
	Items  []domain.User
	Status domain.FetchStatus
	Error  string
	Search string
}

type filterCache struct {
	rev    uint64
	search string
	result []domain.User
	valid  bool
}

// UserStore holds the directory in memory. All reads and writes go through
// its methods.
type UserStore struct {
	fetcher userFetcher
	newID   func() string

	mu       sync.RWMutex
	items    []domain.User
	rev      uint64
	status   domain.FetchStatus
	errMsg   string
	search   string
	fetchSeq uint64
	filtered filterCache

	listeners  map[int]func(Snapshot)
	listenerID int
}

func NewUserStore(fetcher userFetcher) *UserStore {
	return &UserStore{
		fetcher:   fetcher,
		newID:     uuid.NewString,
		items:     []domain.User{},
		status:    domain.FetchStatusIdle,
		listeners: make(map[int]func(Snapshot)),
	}
}

// FetchAll replaces the directory with the remote roster. Only the most
// recently issued fetch may apply its result.
func (s *UserStore) FetchAll(ctx context.Context) error {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.status = domain.FetchStatusLoading
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	log.Info("directory fetch started", "fetch_seq", seq)

	records, err := s.fetcher.FetchUsers(ctx)

	s.mu.Lock()
	if seq != s.fetchSeq {
		latest := s.fetchSeq
		s.mu.Unlock()
		log.Debug("discarding stale directory fetch", "fetch_seq", seq, "latest_seq", latest)
		if err != nil {
			return fmt.Errorf("FetchAll: %w", err)
		}
		return nil
	}

	if err != nil {
		s.status = domain.FetchStatusFailed
		s.errMsg = err.Error()
		s.mu.Unlock()
		s.notify()
		log.Warn("directory fetch failed", "fetch_seq", seq, "error", err)
		return fmt.Errorf("FetchAll: %w", err)
	}

	items := make([]domain.User, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var dropped []string
	for _, rec := range records {
		u := domain.Normalize(rec, s.newID)
		// Ids are unique in items; the first record wins.
		if _, ok := seen[u.ID]; ok {
			dropped = append(dropped, u.ID)
			continue
		}
		seen[u.ID] = struct{}{}
		items = append(items, u)
	}
	s.setItems(items)
	s.status = domain.FetchStatusSucceeded
	s.mu.Unlock()
	s.notify()

	for _, id := range dropped {
		log.Warn("dropping duplicate user id", "fetch_seq", seq, "user_id", id)
	}
	log.Info("directory fetch succeeded", "fetch_seq", seq, "count", len(items))
	return nil
}

func (s *UserStore) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
	s.notify()
}

// CreateUser prepends a new user built from fields and returns its id. Any
// id carried by fields is ignored.
func (s *UserStore) CreateUser(fields domain.UserFields) string {
	fields.ID = nil
	u := domain.Normalize(fields, s.newID)

	s.mu.Lock()
	items := make([]domain.User, 0, len(s.items)+1)
	items = append(items, u)
	items = append(items, s.items...)
	s.setItems(items)
	s.mu.Unlock()
	s.notify()

	return u.ID
}

// UpdateUser merges patch into the user with the given id. It reports
// whether the user existed; a missing id is a no-op.
func (s *UserStore) UpdateUser(id string, patch domain.UserFields) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(u domain.User) bool { return u.ID == id })
	if idx == -1 {
		s.mu.Unlock()
		return false
	}

	items := slices.Clone(s.items)
	items[idx] = items[idx].Merge(patch)
	s.setItems(items)
	s.mu.Unlock()
	s.notify()

	return true
}

// DeleteUser removes the user with the given id and reports whether it was
// present.
func (s *UserStore) DeleteUser(id string) bool {
	s.mu.Lock()
	items := slices.DeleteFunc(slices.Clone(s.items), func(u domain.User) bool { return u.ID == id })
	if len(items) == len(s.items) {
		s.mu.Unlock()
		return false
	}
	s.setItems(items)
	s.mu.Unlock()
	s.notify()

	return true
}

// Filtered returns the users matching the current search, in directory
// order.
func (s *UserStore) Filtered() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.filtered
	if !c.valid || c.rev != s.rev || c.search != s.search {
		c = filterCache{
			rev:    s.rev,
			search: s.search,
			result: FilterUsers(s.items, s.search),
			valid:  true,
		}
		s.filtered = c
	}
	return slices.Clone(c.result)
}

func (s *UserStore) ByID(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FindUser(s.items, id)
}

func (s *UserStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Listeners run outside the store lock and may read from the store.
func (s *UserStore) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.listenerID
	s.listenerID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// setItems must be called with mu held. Slices handed out by the store are
// never written to after this point.
func (s *UserStore) setItems(items []domain.User) {
	s.items = items
	s.rev++
}

func (s *UserStore) snapshotLocked() Snapshot {
	return Snapshot{
		Items:  slices.Clone(s.items),
		Status: s.status,
		Error:  s.errMsg,
		Search: s.search,
	}
}

func (s *UserStore) notify() {
	s.mu.RLock()
	if len(s.listeners) == 0 {
		s.mu.RUnlock()
		return
	}
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
