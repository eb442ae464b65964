// Package store implements a multi-index in-memory contact store.
//
// - primary table maps contact id -> contact
// - name index is an inverted index mapping lowercase name words -> set of ids
// - phone and email indexes map a normalized value -> the single owning id
//
// The four structures are one unit of shared state guarded by a single
// reader/writer mutex: readers (Get, Search, All) run concurrently with each
// other, writers (Create, Update, Delete) exclude everything. A reader can
// never observe a primary table that disagrees with an index.
//
// Operations:
// - create -> validate, check phone/email ownership, insert into table and all indexes
// - get -> O(1) primary table lookup
// - update -> validate deltas, drop stale index entries, install new ones, commit
// - delete -> bulk remove by id, skipping absent ids
// - search -> token index union + exact phone/email probes, plus an optional
// substring scan over all records (O(n), enabled by default)
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/ryansann/rolodex/pkg/contact"
)

type options struct {
	exactOnly bool
}

// StoreOption is a func that modifies the store's configuration options.
type StoreOption func(*options)

// ExactOnly disables the substring scan in Search. Queries then match only via
// the name token index and exact phone/email probes, keeping Search at O(k).
func ExactOnly() StoreOption {
	return func(opts *options) {
		opts.exactOnly = true
	}
}

// Stats holds operation counters, readable without taking the store lock.
type Stats struct {
	Creates  uint64 `json:"creates"`
	Updates  uint64 `json:"updates"`
	Deletes  uint64 `json:"deletes"`
	Searches uint64 `json:"searches"`
	Live     int    `json:"live"`
}

// Store is the multi-index contact store.
type Store struct {
	log *logrus.Logger

	// mtx guards contacts, names, phones and emails as one unit
	mtx      sync.RWMutex
	contacts map[string]contact.Contact
	names    map[string]map[string]struct{}
	phones   map[string]string
	emails   map[string]string

	exactOnly bool

	// version increases on every successful mutation, counters track ops
	version  atomic.Uint64
	creates  atomic.Uint64
	updates  atomic.Uint64
	deletes  atomic.Uint64
	searches atomic.Uint64
}

// New accepts a variadic number of option funcs for configuration.
// It returns a configured Store ready to run operations.
func New(log *logrus.Logger, opts ...StoreOption) *Store {
	cfg := &options{}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Store{
		log:       log,
		contacts:  make(map[string]contact.Contact),
		names:     make(map[string]map[string]struct{}),
		phones:    make(map[string]string),
		emails:    make(map[string]string),
		exactOnly: cfg.exactOnly,
	}
}

// Create assigns a fresh id to a new contact and inserts it into the primary
// table and every index as one atomic step. It fails with ErrInvalidInput if a
// field is empty and with a ConflictError if the phone or email is already
// owned by a live contact. On failure the store is unchanged.
func (s *Store) Create(name, phone, email string) (contact.Contact, error) {
	name = strings.TrimSpace(name)
	phone = contact.NormalizePhone(phone)
	email = strings.TrimSpace(email)

	if name == "" || phone == "" || email == "" {
		return contact.Contact{}, ErrInvalidInput
	}

	c := contact.Contact{
		ID:    contact.NewID(),
		Name:  name,
		Phone: phone,
		Email: email,
	}

	if err := s.insert(c); err != nil {
		return contact.Contact{}, err
	}

	s.creates.Inc()
	s.log.Debugf("created contact %s", c.ID)

	return c, nil
}

// insert holds the write lock for the constraint checks and the index
// installation. No logging or other I/O happens inside the critical section.
func (s *Store) insert(c contact.Contact) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// all constraint checks happen before any mutation
	if _, ok := s.phones[c.Phone]; ok {
		return &ConflictError{Field: "phone", Value: c.Phone}
	}
	if _, ok := s.emails[contact.NormalizeEmail(c.Email)]; ok {
		return &ConflictError{Field: "email", Value: c.Email}
	}

	s.contacts[c.ID] = c
	s.index(c)
	s.version.Inc()

	return nil
}

// Get returns the contact with the given id, or ErrNotFound.
func (s *Store) Get(id string) (contact.Contact, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return contact.Contact{}, ErrNotFound
	}

	return c, nil
}

// Update replaces the provided fields of an existing contact. Constraints are
// validated against the other live contacts before any index is touched, so a
// failed update leaves every structure unchanged. Untouched fields keep their
// current values.
func (s *Store) Update(id string, fields contact.Fields) (contact.Contact, error) {
	next, changed, err := s.apply(id, fields)
	if err != nil {
		return contact.Contact{}, err
	}

	if changed {
		s.updates.Inc()
		s.log.Debugf("updated contact %s", id)
	}

	return next, nil
}

// apply holds the write lock for an update: look up, validate the delta
// against the other live contacts, swap index entries, commit. A failure
// leaves every structure untouched. changed is false for a no-op update.
func (s *Store) apply(id string, fields contact.Fields) (contact.Contact, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cur, ok := s.contacts[id]
	if !ok {
		return contact.Contact{}, false, ErrNotFound
	}

	if fields.Empty() {
		return cur, false, nil
	}

	next := cur
	if fields.Name != nil {
		next.Name = strings.TrimSpace(*fields.Name)
	}
	if fields.Phone != nil {
		next.Phone = contact.NormalizePhone(*fields.Phone)
	}
	if fields.Email != nil {
		next.Email = strings.TrimSpace(*fields.Email)
	}

	if next.Name == "" || next.Phone == "" || next.Email == "" {
		return contact.Contact{}, false, ErrInvalidInput
	}

	if owner, ok := s.phones[next.Phone]; ok && owner != id {
		return contact.Contact{}, false, &ConflictError{Field: "phone", Value: next.Phone}
	}
	if owner, ok := s.emails[contact.NormalizeEmail(next.Email)]; ok && owner != id {
		return contact.Contact{}, false, &ConflictError{Field: "email", Value: next.Email}
	}

	s.unindex(cur)
	s.contacts[id] = next
	s.index(next)
	s.version.Inc()

	return next, true, nil
}

// Delete removes the contacts with the given ids from the primary table and
// every index. Absent ids are skipped, not errors, so retried bulk deletes are
// idempotent. It returns the number of contacts actually removed.
func (s *Store) Delete(ids ...string) int {
	removed := s.remove(ids)

	if removed > 0 {
		s.deletes.Add(uint64(removed))
		s.log.Debugf("deleted %d contacts", removed)
	}

	return removed
}

// remove holds the write lock while dropping each present id from the primary
// table and every index.
func (s *Store) remove(ids []string) int {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	seen := make(map[string]struct{}, len(ids))
	removed := 0

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		c, ok := s.contacts[id]
		if !ok {
			continue
		}

		s.unindex(c)
		delete(s.contacts, id)
		removed++
	}

	if removed > 0 {
		s.version.Inc()
	}

	return removed
}

// Search returns the contacts matching the query, ordered by ascending id.
// An empty or whitespace query matches nothing. Matching is case-insensitive:
// each query token is looked up in the name index and the results unioned,
// and the raw query is probed against the phone and email indexes. Unless the
// store was built with ExactOnly, a substring containment scan over
// name/phone/email runs as well; that scan is O(n) in the number of live
// contacts and is the only super-constant part of a query.
func (s *Store) Search(query string) []contact.Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.searches.Inc()

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ids := make(map[string]struct{})

	// token index union
	for _, tok := range contact.Tokenize(q) {
		for id := range s.names[tok] {
			ids[id] = struct{}{}
		}
	}

	// O(1) exact probes
	if id, ok := s.phones[contact.NormalizePhone(query)]; ok {
		ids[id] = struct{}{}
	}
	if id, ok := s.emails[contact.NormalizeEmail(query)]; ok {
		ids[id] = struct{}{}
	}

	if !s.exactOnly {
		for id, c := range s.contacts {
			if strings.Contains(strings.ToLower(c.Name), q) ||
				strings.Contains(c.Phone, q) ||
				strings.Contains(strings.ToLower(c.Email), q) {
				ids[id] = struct{}{}
			}
		}
	}

	return s.collect(ids)
}

// All returns every live contact, ordered by ascending id.
func (s *Store) All() []contact.Contact {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ids := make(map[string]struct{}, len(s.contacts))
	for id := range s.contacts {
		ids[id] = struct{}{}
	}

	return s.collect(ids)
}

// Len returns the number of live contacts.
func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.contacts)
}

// Version returns the write-generation counter. It increases on every
// successful mutation and can be read without taking the store lock, which
// lets callers cheaply invalidate caches of search results.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Stats returns the operation counters.
func (s *Store) Stats() Stats {
	return Stats{
		Creates:  s.creates.Load(),
		Updates:  s.updates.Load(),
		Deletes:  s.deletes.Load(),
		Searches: s.searches.Load(),
		Live:     s.Len(),
	}
}

// index installs c's entries in every secondary index. Caller holds the write lock.
func (s *Store) index(c contact.Contact) {
	for _, tok := range contact.Tokenize(c.Name) {
		bucket, ok := s.names[tok]
		if !ok {
			bucket = make(map[string]struct{})
			s.names[tok] = bucket
		}
		bucket[c.ID] = struct{}{}
	}

	s.phones[c.Phone] = c.ID
	s.emails[contact.NormalizeEmail(c.Email)] = c.ID
}

// unindex removes c's entries from every secondary index, deleting emptied
// name buckets. Caller holds the write lock.
func (s *Store) unindex(c contact.Contact) {
	for _, tok := range contact.Tokenize(c.Name) {
		if bucket, ok := s.names[tok]; ok {
			delete(bucket, c.ID)
			if len(bucket) == 0 {
				delete(s.names, tok)
			}
		}
	}

	delete(s.phones, c.Phone)
	delete(s.emails, contact.NormalizeEmail(c.Email))
}

// collect resolves an id set against the primary table, sorted by id.
// Caller holds at least the read lock.
func (s *Store) collect(ids map[string]struct{}) []contact.Contact {
	if len(ids) == 0 {
		return nil
	}

	out := make([]contact.Contact, 0, len(ids))
	for id := range ids {
		if c, ok := s.contacts[id]; ok {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
