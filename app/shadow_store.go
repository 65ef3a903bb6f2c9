package app

import (
	"sync"

	"loragw/models"
)

// ShadowStore owns every DeviceShadow. Readers get copies; the map itself
// never leaves the store. A single lock is enough for a handful of devices.
type ShadowStore struct {
	mu      sync.Mutex
	shadows map[int]*models.DeviceShadow
}

// NewShadowStore creates one zero-valued shadow per id. The id set is fixed
// for the life of the store.
func NewShadowStore(ids []int) *ShadowStore {
	shadows := make(map[int]*models.DeviceShadow, len(ids))
	for _, id := range ids {
		shadows[id] = &models.DeviceShadow{}
	}
	return &ShadowStore{shadows: shadows}
}

func (s *ShadowStore) Get(id int) (models.DeviceShadow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shadows[id]
	if !ok {
		return models.DeviceShadow{}, false
	}
	return *sh, true
}

// ApplyTelemetryFields merges the fields that are set and returns the
// post-merge shadow.
func (s *ShadowStore) ApplyTelemetryFields(id int, f models.ShadowFields) (models.DeviceShadow, bool) {
	return s.update(id, func(sh *models.DeviceShadow) {
		if f.AutoMode != nil {
			sh.AutoMode = *f.AutoMode
		}
		if f.YellowColorSelected != nil {
			sh.YellowColorSelected = *f.YellowColorSelected
		}
		if f.LedBrightness != nil {
			sh.LedBrightness = *f.LedBrightness
		}
	})
}

func (s *ShadowStore) SetAutoMode(id int, v bool) (models.DeviceShadow, bool) {
	return s.update(id, func(sh *models.DeviceShadow) { sh.AutoMode = v })
}

func (s *ShadowStore) SetYellowColor(id int, v bool) (models.DeviceShadow, bool) {
	return s.update(id, func(sh *models.DeviceShadow) { sh.YellowColorSelected = v })
}

func (s *ShadowStore) SetBrightness(id int, v int) (models.DeviceShadow, bool) {
	return s.update(id, func(sh *models.DeviceShadow) { sh.LedBrightness = v })
}

func (s *ShadowStore) update(id int, fn func(*models.DeviceShadow)) (models.DeviceShadow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shadows[id]
	if !ok {
		return models.DeviceShadow{}, false
	}
	fn(sh)
	return *sh, true
}
