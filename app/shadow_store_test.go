package app

import (
	"sync"
	"testing"

	"loragw/models"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestShadowStoreDefaults(t *testing.T) {
	s := NewShadowStore([]int{1, 2})
	sh, ok := s.Get(1)
	if !ok {
		t.Fatal("Get(1) not found")
	}
	if sh != (models.DeviceShadow{}) {
		t.Errorf("default shadow = %+v", sh)
	}
	if _, ok := s.Get(9); ok {
		t.Error("Get(9) found a shadow for an unregistered id")
	}
}

func TestShadowStoreMergeLeavesAbsentFields(t *testing.T) {
	s := NewShadowStore([]int{1})
	s.SetAutoMode(1, true)
	s.SetBrightness(1, 40)

	got, ok := s.ApplyTelemetryFields(1, models.ShadowFields{YellowColorSelected: boolPtr(true)})
	if !ok {
		t.Fatal("ApplyTelemetryFields() not ok")
	}
	want := models.DeviceShadow{AutoMode: true, YellowColorSelected: true, LedBrightness: 40}
	if got != want {
		t.Errorf("after merge = %+v, want %+v", got, want)
	}

	got, _ = s.ApplyTelemetryFields(1, models.ShadowFields{AutoMode: boolPtr(false), LedBrightness: intPtr(0)})
	want = models.DeviceShadow{AutoMode: false, YellowColorSelected: true, LedBrightness: 0}
	if got != want {
		t.Errorf("after second merge = %+v, want %+v", got, want)
	}

	got, _ = s.ApplyTelemetryFields(1, models.ShadowFields{})
	if got != want {
		t.Errorf("empty merge changed shadow: %+v", got)
	}
}

func TestShadowStoreSetters(t *testing.T) {
	s := NewShadowStore([]int{1, 2})

	if sh, _ := s.SetYellowColor(1, true); !sh.YellowColorSelected {
		t.Error("SetYellowColor did not stick")
	}
	if sh, _ := s.SetBrightness(1, 75); sh.LedBrightness != 75 || !sh.YellowColorSelected {
		t.Errorf("SetBrightness result = %+v", sh)
	}
	if sh, _ := s.Get(2); sh != (models.DeviceShadow{}) {
		t.Errorf("device 2 touched: %+v", sh)
	}
	if _, ok := s.SetAutoMode(5, true); ok {
		t.Error("SetAutoMode on unregistered id reported ok")
	}
}

func TestShadowStoreConcurrentWriters(t *testing.T) {
	s := NewShadowStore([]int{1})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			s.SetBrightness(1, n)
		}(i)
		go func(n int) {
			defer wg.Done()
			s.ApplyTelemetryFields(1, models.ShadowFields{AutoMode: boolPtr(n%2 == 0)})
		}(i)
		go func() {
			defer wg.Done()
			s.Get(1)
		}()
	}
	wg.Wait()

	sh, _ := s.Get(1)
	if sh.LedBrightness < 0 || sh.LedBrightness >= 50 {
		t.Errorf("brightness = %d, want one of the written values", sh.LedBrightness)
	}
}
