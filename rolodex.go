package rolodex

import "github.com/ryansann/rolodex/pkg/contact"

// Storer is the interface the contact store implements. The store keeps a primary
// table and secondary indexes (name tokens, phone, email) mutually consistent:
// every operation observes either all of a mutation's index changes or none of them.
// Implementations must be safe for concurrent use.
type Storer interface {
	// Create generates an id for a new contact and inserts it into the primary
	// table and every secondary index. It returns the stored contact, or an
	// error if a field is empty or the phone/email is already owned by a live
	// contact.
	Create(name, phone, email string) (contact.Contact, error)
	// Get returns the contact with the given id or an error if it does not exist.
	Get(id string) (contact.Contact, error)
	// Update replaces the provided fields of an existing contact, reindexing it
	// as one atomic step. Untouched fields are preserved.
	Update(id string, fields contact.Fields) (contact.Contact, error)
	// Delete removes the contacts with the given ids, skipping ids that are not
	// present, and returns the number of contacts actually removed.
	Delete(ids ...string) int
	// Search returns the contacts matching the query, ordered by ascending id.
	Search(query string) []contact.Contact
	// All returns every live contact, ordered by ascending id.
	All() []contact.Contact
	// Version returns a counter that increases on every successful mutation.
	Version() uint64
}
