package staff

import "context"

type memoryDirectory struct {
	byRole map[Role][]Identity
}

// NewMemoryDirectory builds an immutable directory over the given identities.
// The slice is copied so later mutation by the caller has no effect.
func NewMemoryDirectory(ids ...Identity) Directory {
	byRole := make(map[Role][]Identity)
	for _, id := range ids {
		byRole[id.Role] = append(byRole[id.Role], id)
	}
	return &memoryDirectory{byRole: byRole}
}

func (d *memoryDirectory) FindByUsername(_ context.Context, name string, role Role) (Identity, error) {
	key := NameKey(name)
	for _, id := range d.byRole[role] {
		if NameKey(id.Name) == key {
			return id, nil
		}
	}
	return Identity{}, ErrNotFound
}
