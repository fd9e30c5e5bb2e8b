package contacts

import "errors"

var (
	// ErrDuplicateContact is returned by Create when the derived contact id
	// already exists. The original behavior of silently overwriting a
	// contact was rejected in the redesign.
	ErrDuplicateContact = errors.New("contact already exists")

	// ErrNotFound is returned by Delete for an unknown contact id.
	ErrNotFound = errors.New("contact not found")
)

// Contact is one entry of the personal contact book.
type Contact struct {
	Name   string `json:"name"`
	Handle string `json:"handle"` // network address: "@username" or phone
	Role   string `json:"role"`
	Notes  string `json:"notes,omitempty"`
}

// Info is a Contact together with its id and registered aliases, as
// returned by List.
type Info struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Handle  string   `json:"handle"`
	Role    string   `json:"role"`
	Aliases []string `json:"aliases"`
	Notes   string   `json:"notes,omitempty"`
}

// ResolvedTarget is the outcome of resolving a recipient hint: a concrete
// deliverable name/handle pair.
type ResolvedTarget struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}
