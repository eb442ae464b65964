// Package service provides the business layer over the contact store: field
// format validation, bulk fan-out with partial success, and a search result
// cache. Batching policy lives here, not in the store - the store exposes
// single-record primitives and the service decides how batches behave.
package service

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ryansann/rolodex"
	"github.com/ryansann/rolodex/pkg/contact"
	"github.com/ryansann/rolodex/pkg/store"
)

// ContactInput is the payload for creating one contact.
type ContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// UpdateInput is the payload for updating one contact. Nil fields are left
// unchanged.
type UpdateInput struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// BatchError ties a per-element failure to its position in the request batch.
type BatchError struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

func (e BatchError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

// Unwrap exposes the underlying store error for errors.Is matching.
func (e BatchError) Unwrap() error {
	return e.Err
}

type options struct {
	cacheSize int
}

// ServiceOption is a func that modifies the service's configuration options.
type ServiceOption func(*options)

// CacheSize overrides the default search cache capacity.
func CacheSize(n int) ServiceOption {
	return func(opts *options) {
		opts.cacheSize = n
	}
}

type cachedSearch struct {
	version  uint64
	contacts []contact.Contact
}

// Service is the business layer over a contact store.
type Service struct {
	log   *logrus.Logger
	store rolodex.Storer
	cache *lru.Cache[string, cachedSearch]
}

const defaultCacheSize = 128

// New returns a configured Service wrapping the given store.
func New(log *logrus.Logger, st rolodex.Storer, opts ...ServiceOption) (*Service, error) {
	cfg := &options{
		cacheSize: defaultCacheSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cache, err := lru.New[string, cachedSearch](cfg.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create search cache")
	}

	return &Service{
		log:   log,
		store: st,
		cache: cache,
	}, nil
}

// CreateContacts creates each element of the batch independently. One
// element's failure does not roll back or block the others; failures are
// returned alongside the created contacts, carrying the element index.
func (s *Service) CreateContacts(inputs []ContactInput) ([]contact.Contact, []BatchError) {
	var created []contact.Contact
	var errs []BatchError

	for i, in := range inputs {
		if err := validateContact(in.Name, in.Phone, in.Email); err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
			continue
		}

		c, err := s.store.Create(in.Name, in.Phone, in.Email)
		if err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
			continue
		}

		created = append(created, c)
	}

	s.log.Infof("created %d contacts (%d failed)", len(created), len(errs))

	return created, errs
}

// UpdateContacts applies each update of the batch independently, with the same
// partial-success semantics as CreateContacts.
func (s *Service) UpdateContacts(inputs []UpdateInput) ([]contact.Contact, []BatchError) {
	var updated []contact.Contact
	var errs []BatchError

	for i, in := range inputs {
		if strings.TrimSpace(in.ID) == "" {
			errs = append(errs, BatchError{Index: i, Err: errors.Wrap(store.ErrInvalidInput, "id is required")})
			continue
		}

		if err := validateUpdate(in); err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
			continue
		}

		c, err := s.store.Update(in.ID, contact.Fields{Name: in.Name, Phone: in.Phone, Email: in.Email})
		if err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
			continue
		}

		updated = append(updated, c)
	}

	s.log.Infof("updated %d contacts (%d failed)", len(updated), len(errs))

	return updated, errs
}

// DeleteContacts removes the given ids and returns how many were actually
// removed. Missing ids are skipped, never errors.
func (s *Service) DeleteContacts(ids []string) int {
	n := s.store.Delete(ids...)

	s.log.Infof("deleted %d contacts", n)

	return n
}

// SearchContacts returns the contacts matching the query, consulting a small
// LRU cache first. A cached entry is served only while the store's write
// generation is unchanged, so results are never stale.
func (s *Service) SearchContacts(query string) []contact.Contact {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil
	}

	version := s.store.Version()

	if hit, ok := s.cache.Get(key); ok && hit.version == version {
		s.log.Debugf("search cache hit for %q", key)
		return append([]contact.Contact(nil), hit.contacts...)
	}

	found := s.store.Search(query)
	s.cache.Add(key, cachedSearch{version: version, contacts: found})

	return append([]contact.Contact(nil), found...)
}

// GetContact returns a single contact by id.
func (s *Service) GetContact(id string) (contact.Contact, error) {
	return s.store.Get(id)
}

// AllContacts returns every live contact.
func (s *Service) AllContacts() []contact.Contact {
	return s.store.All()
}

// validateContact applies the field format rules for a full contact.
func validateContact(name, phone, email string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(store.ErrInvalidInput, "name must be a non-empty string")
	}
	if err := validatePhone(phone); err != nil {
		return err
	}
	return validateEmail(email)
}

// validateUpdate applies the field format rules to the fields an update sets.
func validateUpdate(in UpdateInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return errors.Wrap(store.ErrInvalidInput, "name must be a non-empty string")
	}
	if in.Phone != nil {
		if err := validatePhone(*in.Phone); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := validateEmail(*in.Email); err != nil {
			return err
		}
	}
	return nil
}

// phoneStripper drops the separators commonly found in phone numbers.
var phoneStripper = strings.NewReplacer("-", "", " ", "", "(", "", ")", "")

// validatePhone requires at least 10 digits once separators are stripped.
func validatePhone(phone string) error {
	digits := phoneStripper.Replace(strings.TrimSpace(phone))
	if len(digits) < 10 {
		return errors.Wrapf(store.ErrInvalidInput, "invalid phone format: %s", phone)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return errors.Wrapf(store.ErrInvalidInput, "invalid phone format: %s", phone)
		}
	}
	return nil
}

// validateEmail requires an @ and a dot in the domain part.
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return errors.Wrapf(store.ErrInvalidInput, "invalid email format: %s", email)
	}
	return nil
}
