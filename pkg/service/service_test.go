package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansann/rolodex/pkg/store"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()

	svc, err := New(testLogger(), store.New(testLogger()), opts...)
	require.NoError(t, err)

	return svc
}

func TestCreateContactsPartialSuccess(t *testing.T) {
	svc := newTestService(t)

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
		{Name: "", Phone: "555-020-0000", Email: "bad@example.com"},
		{Name: "Bob Jones", Phone: "555-030-0000", Email: "bob@example.com"},
	})

	require.Len(t, created, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.ErrorIs(t, errs[0], store.ErrInvalidInput)

	// the valid elements landed despite the failure
	_, err := svc.GetContact(created[0].ID)
	require.NoError(t, err)
	_, err = svc.GetContact(created[1].ID)
	require.NoError(t, err)
}

func TestCreateContactsValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		input ContactInput
	}{
		{name: "email missing at", input: ContactInput{Name: "A B", Phone: "555-010-0000", Email: "not-an-email"}},
		{name: "email missing domain dot", input: ContactInput{Name: "A B", Phone: "555-010-0000", Email: "a@host"}},
		{name: "phone too short", input: ContactInput{Name: "A B", Phone: "12345", Email: "a@example.com"}},
		{name: "phone with letters", input: ContactInput{Name: "A B", Phone: "555-CALL-NOW0", Email: "a@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, errs := svc.CreateContacts([]ContactInput{tt.input})
			assert.Empty(t, created)
			require.Len(t, errs, 1)
			assert.ErrorIs(t, errs[0], store.ErrInvalidInput)
		})
	}
}

func TestCreateContactsAcceptsSeparators(t *testing.T) {
	svc := newTestService(t)

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "(555) 010-00 00", Email: "alice@example.com"},
	})
	require.Empty(t, errs)
	require.Len(t, created, 1)
}

func TestCreateContactsConflict(t *testing.T) {
	svc := newTestService(t)

	_, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
		{Name: "Imposter", Phone: "555-010-0000", Email: "imposter@example.com"},
	})

	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Index)
	assert.ErrorIs(t, errs[0], store.ErrConflict)
}

func TestUpdateContacts(t *testing.T) {
	svc := newTestService(t)

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
	})
	require.Empty(t, errs)

	newName := "Alice Jones"
	updated, errs := svc.UpdateContacts([]UpdateInput{
		{ID: created[0].ID, Name: &newName},
		{ID: "", Name: &newName},
		{ID: "missing", Name: &newName},
	})

	require.Len(t, updated, 1)
	assert.Equal(t, "Alice Jones", updated[0].Name)
	assert.Equal(t, "555-010-0000", updated[0].Phone)

	require.Len(t, errs, 2)
	assert.Equal(t, 1, errs[0].Index)
	assert.ErrorIs(t, errs[0], store.ErrInvalidInput)
	assert.Equal(t, 2, errs[1].Index)
	assert.ErrorIs(t, errs[1], store.ErrNotFound)
}

func TestUpdateContactsRejectsBadFields(t *testing.T) {
	svc := newTestService(t)

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
	})
	require.Empty(t, errs)

	bad := "not-an-email"
	_, errs = svc.UpdateContacts([]UpdateInput{{ID: created[0].ID, Email: &bad}})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], store.ErrInvalidInput)

	// the contact is untouched
	got, err := svc.GetContact(created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestDeleteContacts(t *testing.T) {
	svc := newTestService(t)

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
		{Name: "Bob Jones", Phone: "555-020-0000", Email: "bob@example.com"},
	})
	require.Empty(t, errs)

	assert.Equal(t, 2, svc.DeleteContacts([]string{created[0].ID, created[1].ID, "missing"}))
	assert.Equal(t, 0, svc.DeleteContacts([]string{created[0].ID}))
}

func TestSearchContactsCache(t *testing.T) {
	svc := newTestService(t, CacheSize(4))

	created, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
	})
	require.Empty(t, errs)

	first := svc.SearchContacts("smith")
	require.Len(t, first, 1)

	// cached path returns the same result
	second := svc.SearchContacts("Smith")
	assert.Equal(t, first, second)

	// a write invalidates the cached entry
	svc.DeleteContacts([]string{created[0].ID})
	assert.Empty(t, svc.SearchContacts("smith"))
}

func TestSearchContactsEmptyQuery(t *testing.T) {
	svc := newTestService(t)

	assert.Empty(t, svc.SearchContacts(""))
	assert.Empty(t, svc.SearchContacts("   "))
}

func TestSearchContactsResultIsACopy(t *testing.T) {
	svc := newTestService(t)

	_, errs := svc.CreateContacts([]ContactInput{
		{Name: "Alice Smith", Phone: "555-010-0000", Email: "alice@example.com"},
	})
	require.Empty(t, errs)

	got := svc.SearchContacts("smith")
	require.Len(t, got, 1)
	got[0].Name = "mutated"

	again := svc.SearchContacts("smith")
	require.Len(t, again, 1)
	assert.Equal(t, "Alice Smith", again[0].Name)
}
