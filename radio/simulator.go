package radio

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"loragw/models"
)

type simNode struct {
	autoMode   bool
	yellow     bool
	brightness int
}

// Simulator stands in for the radio when no hardware is attached. Each
// registered node reports synthetic sensor readings on every tick and
// applies commands sent to it, so later reports reflect them.
type Simulator struct {
	handler  FrameHandler
	interval time.Duration
	ids      []int

	mu    sync.Mutex
	nodes map[int]*simNode
	rng   *rand.Rand

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
}

func NewSimulator(ids []int, interval time.Duration, handler FrameHandler) *Simulator {
	nodes := make(map[int]*simNode, len(ids))
	for _, id := range ids {
		nodes[id] = &simNode{}
	}
	return &Simulator{
		handler:  handler,
		interval: interval,
		ids:      ids,
		nodes:    nodes,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Simulator) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go s.run()
	log.Printf("LoRa simulator started for %d devices, interval %v", len(s.ids), s.interval)
}

func (s *Simulator) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for _, id := range s.ids {
				s.handler(s.Frame(id))
			}
		}
	}
}

// Frame builds one synthetic report for id.
func (s *Simulator) Frame(id int) models.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return models.Frame{models.FrameDeviceID: float64(id)}
	}

	light := float64(s.rng.Intn(1000))
	voltage := 215 + s.rng.Float64()*10
	current := 0.0
	if n.brightness > 0 {
		current = float64(n.brightness) / 100 * (0.4 + s.rng.Float64()*0.1)
	}
	motion := s.rng.Intn(10) == 0

	if n.autoMode {
		switch {
		case light < 200 && motion:
			n.brightness = 100
		case light < 200:
			n.brightness = 30
		default:
			n.brightness = 0
		}
	}

	return models.Frame{
		models.FrameDeviceID:      float64(id),
		models.FrameLight:         light,
		models.FrameVoltage:       voltage,
		models.FrameCurrent:       current,
		models.FramePower:         voltage * current,
		models.FrameMotion:        motion,
		models.FrameRain:          s.rng.Intn(20) == 0,
		models.FrameAutoMode:      n.autoMode,
		models.FrameLedBrightness: float64(n.brightness),
		models.FrameYellowColor:   n.yellow,
	}
}

func (s *Simulator) Send(deviceID int, kind models.CommandKind, value int) error {
	select {
	case <-s.stop:
		return ErrLinkClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[deviceID]
	if !ok {
		log.Printf("LoRa simulator: no node %d", deviceID)
		return nil
	}
	switch kind {
	case models.CommandAuto:
		n.autoMode = value != 0
	case models.CommandColor:
		n.yellow = value == models.ColorYellow
	case models.CommandDim:
		n.brightness = value
	}
	log.Printf("LoRa simulator -> device %d: %s %d", deviceID, kind, value)
	return nil
}

func (s *Simulator) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	return nil
}
