// Package hangar holds the hangar record store, the derived views computed
// from its snapshots and the mutations that change it.
package hangar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Persister writes the change set of one mutation. Implementations must
// apply all changes or none.
type Persister interface {
	Persist(ctx context.Context, changes []Change) error
}

// Publisher announces committed changes to other instances.
type Publisher interface {
	Publish(ctx context.Context, changes []Change) error
}

// Source loads one collection from the hosted backend into dst, replacing
// that collection only.
type Source interface {
	Load(ctx context.Context, col Collection, dst *State) error
}

// Store is the single authoritative record store. Mutations are serialized
// and each one commits a whole new snapshot or nothing.
type Store struct {
	mu        sync.RWMutex
	state     State
	clock     Clock
	persister Persister
	publisher Publisher
	source    Source
	log       *logrus.Entry
	lastErr   string

	// seq counts commits. While a refresh is loading, deletes are kept as
	// tombstones keyed by the commit that made them.
	seq        uint64
	refreshing int
	tombstones map[Collection]map[primitive.ObjectID]uint64
}

// Option configures a Store.
type Option func(*Store)

func WithPersister(p Persister) Option { return func(s *Store) { s.persister = p } }

func WithPublisher(p Publisher) Option { return func(s *Store) { s.publisher = p } }

func WithSource(src Source) Option { return func(s *Store) { s.source = src } }

func WithLogger(l *logrus.Logger) Option {
	return func(s *Store) { s.log = l.WithField("component", "hangar") }
}

// WithState seeds the initial snapshot.
func WithState(st State) Option { return func(s *Store) { s.state = st.Clone() } }

// NewStore creates an in-memory store. Without a Persister it never fails
// on commit.
func NewStore(clock Clock, opts ...Option) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Store{
		clock: clock,
		log:   logrus.NewEntry(logrus.StandardLogger()).WithField("component", "hangar"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state.Selection.View == "" {
		s.state.Selection = defaultSelection(clock.Now())
	}
	return s
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.clock.Now() }

// Today returns the store clock's current local date.
func (s *Store) Today() string { return DateOf(s.clock.Now()) }

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// LastError returns the message of the most recent persistence failure, or
// an empty string once a later mutation has persisted successfully.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Update runs fn against a working copy of the state. If fn fails the
// state is untouched. Otherwise the recorded changes are persisted and the
// copy becomes the new state; a persistence failure discards the copy.
func (s *Store) Update(ctx context.Context, op string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	working := s.state.Clone()
	tx := &Tx{state: &working, now: s.clock.Now()}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return err
	}

	if s.persister != nil && len(tx.changes) > 0 {
		if err := s.persister.Persist(ctx, tx.changes); err != nil {
			s.lastErr = err.Error()
			s.mu.Unlock()
			s.log.WithError(err).WithField("op", op).Error("Failed to persist changes")
			return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
		}
		s.lastErr = ""
	}
	s.state = working
	s.seq++
	changes := tx.changes
	if s.refreshing > 0 {
		s.bury(changes)
	}
	s.mu.Unlock()

	if s.publisher != nil && len(changes) > 0 {
		if err := s.publisher.Publish(ctx, changes); err != nil {
			s.log.WithError(err).WithField("op", op).Warn("Failed to publish change notification")
		}
	}
	return nil
}

// bury records the deletes of the current commit. Callers hold s.mu.
func (s *Store) bury(changes []Change) {
	for _, c := range changes {
		if c.Action != ActionDelete {
			continue
		}
		if s.tombstones == nil {
			s.tombstones = map[Collection]map[primitive.ObjectID]uint64{}
		}
		if s.tombstones[c.Collection] == nil {
			s.tombstones[c.Collection] = map[primitive.ObjectID]uint64{}
		}
		s.tombstones[c.Collection][c.ID] = s.seq
	}
}

// Init replaces every collection with the contents of the source. The UI
// selection is kept.
func (s *Store) Init(ctx context.Context) error {
	if s.source == nil {
		return nil
	}
	var loaded State
	for _, col := range Collections() {
		if err := s.source.Load(ctx, col, &loaded); err != nil {
			s.mu.Lock()
			s.lastErr = err.Error()
			s.mu.Unlock()
			return fmt.Errorf("load %s: %w: %v", col, ErrPersistence, err)
		}
	}

	s.mu.Lock()
	loaded.Selection = s.state.Selection
	s.state = loaded
	s.lastErr = ""
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"vehicles": len(loaded.Vehicles),
		"jobs":     len(loaded.Jobs),
		"schedule": len(loaded.Schedule),
	}).Info("Loaded hangar state")
	return nil
}
