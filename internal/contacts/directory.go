package contacts

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Directory is the single source of truth for recipient identity: an
// in-memory contact set plus alias index, backed by an optional FileStore.
// Mutations take the write lock and persist before returning, so the
// no-dangling-alias invariant holds from any reader's perspective.
type Directory struct {
	mu       sync.RWMutex
	contacts map[string]Contact
	aliases  map[string]string // lower-cased alias → contact id
	settings map[string]interface{}
	store    *FileStore // nil = in-memory only
}

// New returns an empty in-memory directory.
func New() *Directory {
	return &Directory{
		contacts: make(map[string]Contact),
		aliases:  make(map[string]string),
	}
}

// Open loads the directory from st and revalidates its invariants: aliases
// whose target contact is missing are dropped rather than trusted, and
// each contact's implicit aliases (lower-cased name and id) are restored
// if absent.
func Open(st *FileStore) (*Directory, error) {
	doc, err := st.Load()
	if err != nil {
		return nil, err
	}

	d := New()
	d.store = st
	d.contacts = doc.Contacts
	d.settings = doc.Settings

	for alias, id := range doc.Aliases {
		if _, ok := doc.Contacts[id]; !ok {
			slog.Warn("contacts: dropping dangling alias", "alias", alias, "target", id)
			continue
		}
		d.aliases[strings.ToLower(alias)] = id
	}
	for id, c := range d.contacts {
		d.aliases[strings.ToLower(c.Name)] = id
		d.aliases[id] = id
	}

	return d, nil
}

// DeriveID converts a contact name to its canonical id: lower-cased with
// spaces replaced by underscores.
func DeriveID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Resolve maps a recipient hint to a concrete target. A hint starting
// with "@" is a network handle literal and resolves to itself without a
// directory lookup. Otherwise the lower-cased, trimmed hint is looked up
// in the alias index, then matched case-insensitively against contact
// names. Returns nil for an empty or unknown hint.
func (d *Directory) Resolve(hint string) *ResolvedTarget {
	if hint == "" {
		return nil
	}
	if strings.HasPrefix(hint, "@") {
		return &ResolvedTarget{Name: hint, Handle: hint}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(hint))
	if id, ok := d.aliases[key]; ok {
		if c, ok := d.contacts[id]; ok {
			return &ResolvedTarget{Name: c.Name, Handle: c.Handle}
		}
	}

	for _, c := range d.contacts {
		if strings.EqualFold(c.Name, key) {
			return &ResolvedTarget{Name: c.Name, Handle: c.Handle}
		}
	}
	return nil
}

// Create adds a contact and registers its aliases: the lower-cased name,
// the id itself, and every explicitly supplied alias (lower-cased).
// Returns ErrDuplicateContact when the derived id is already taken.
func (d *Directory) Create(name, handle, role string, aliases []string, notes string) (string, error) {
	id := DeriveID(name)
	if id == "" {
		return "", fmt.Errorf("contact name is empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.contacts[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateContact, id)
	}

	d.contacts[id] = Contact{Name: name, Handle: handle, Role: role, Notes: notes}

	// An alias may already point at another contact; remember the old
	// target so a failed save can put it back.
	overwritten := make(map[string]string)
	register := func(a string) {
		if prev, ok := d.aliases[a]; ok && prev != id {
			overwritten[a] = prev
		}
		d.aliases[a] = id
	}
	register(strings.ToLower(name))
	register(id)
	for _, a := range aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			register(a)
		}
	}

	if err := d.saveLocked(); err != nil {
		// Roll back so memory and disk stay consistent.
		delete(d.contacts, id)
		for a, target := range d.aliases {
			if target == id {
				delete(d.aliases, a)
			}
		}
		for a, prev := range overwritten {
			d.aliases[a] = prev
		}
		return "", err
	}
	return id, nil
}

// Delete removes a contact and every alias pointing at it. Returns
// ErrNotFound for an unknown id.
func (d *Directory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed, exists := d.contacts[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(d.contacts, id)
	var removedAliases []string
	for a, target := range d.aliases {
		if target == id {
			removedAliases = append(removedAliases, a)
			delete(d.aliases, a)
		}
	}

	if err := d.saveLocked(); err != nil {
		// Roll back the in-memory removal on persistence failure.
		d.contacts[id] = removed
		for _, a := range removedAliases {
			d.aliases[a] = id
		}
		return err
	}
	return nil
}

// List returns all contacts with their aliases, sorted by id.
func (d *Directory) List() []Info {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Info, 0, len(d.contacts))
	for id, c := range d.contacts {
		info := Info{ID: id, Name: c.Name, Handle: c.Handle, Role: c.Role, Notes: c.Notes}
		for a, target := range d.aliases {
			if target == id {
				info.Aliases = append(info.Aliases, a)
			}
		}
		sort.Strings(info.Aliases)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ContactIDs returns the sorted contact ids, used as the known-contacts
// list for correction and hint extraction.
func (d *Directory) ContactIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.contacts))
	for id := range d.contacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of contacts.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.contacts)
}

func (d *Directory) saveLocked() error {
	if d.store == nil {
		return nil
	}
	doc := &Document{
		Contacts: d.contacts,
		Aliases:  d.aliases,
		Settings: d.settings,
	}
	return d.store.Save(doc)
}
