package app

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"loragw/config"
)

// deviceNamespace seeds the name-based UUIDs handed to other services, so a
// device keeps its UUID across restarts as long as its name does not change.
var deviceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lora-gateway/devices"))

// Registry is the immutable bijection between radio device ids and cloud
// device names.
type Registry struct {
	names  map[int]string
	ids    map[string]int
	uuids  map[int]uuid.UUID
	byUUID map[string]int
	order  []int
}

func NewRegistry(entries []config.DeviceEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no devices", config.ErrInvalidDeviceMap)
	}
	r := &Registry{
		names:  make(map[int]string, len(entries)),
		ids:    make(map[string]int, len(entries)),
		uuids:  make(map[int]uuid.UUID, len(entries)),
		byUUID: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.ID <= 0 {
			return nil, fmt.Errorf("%w: device id %d must be positive", config.ErrInvalidDeviceMap, e.ID)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("%w: device %d has no name", config.ErrInvalidDeviceMap, e.ID)
		}
		if _, dup := r.names[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate device id %d", config.ErrInvalidDeviceMap, e.ID)
		}
		if _, dup := r.ids[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate device name %q", config.ErrInvalidDeviceMap, e.Name)
		}
		u := uuid.NewSHA1(deviceNamespace, []byte(e.Name))
		r.names[e.ID] = e.Name
		r.ids[e.Name] = e.ID
		r.uuids[e.ID] = u
		r.byUUID[u.String()] = e.ID
		r.order = append(r.order, e.ID)
	}
	sort.Ints(r.order)
	return r, nil
}

func (r *Registry) Name(id int) (string, bool) {
	name, ok := r.names[id]
	return name, ok
}

func (r *Registry) ID(name string) (int, bool) {
	id, ok := r.ids[name]
	return id, ok
}

func (r *Registry) UUID(id int) (uuid.UUID, bool) {
	u, ok := r.uuids[id]
	return u, ok
}

func (r *Registry) IDByUUID(s string) (int, bool) {
	id, ok := r.byUUID[s]
	return id, ok
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []int {
	out := make([]int, len(r.order))
	copy(out, r.order)
	return out
}
