package radio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tarm/serial"

	"loragw/models"
)

const maxFrameSize = 4096

type SerialConfig struct {
	Port      string
	Baud      int
	Frequency int
	SyncWord  int
}

// SerialLink talks to a LoRa modem attached over UART. The modem forwards
// every received packet as one JSON line and transmits every line written
// to it.
type SerialLink struct {
	port    io.ReadWriteCloser
	handler FrameHandler

	wmu    sync.Mutex
	closed bool
	done   chan struct{}
}

func OpenSerial(cfg SerialConfig, handler FrameHandler) (*SerialLink, error) {
	sc := &serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: 500 * time.Millisecond,
	}
	p, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("open LoRa modem %s failed: %w", cfg.Port, err)
	}

	l := newSerialLink(p, handler)
	if err := l.configure(cfg.Frequency, cfg.SyncWord); err != nil {
		p.Close()
		return nil, err
	}
	go l.readLoop()
	log.Printf("LoRa modem on %s configured: freq=%d sync_word=0x%02X", cfg.Port, cfg.Frequency, cfg.SyncWord)
	return l, nil
}

func newSerialLink(port io.ReadWriteCloser, handler FrameHandler) *SerialLink {
	return &SerialLink{
		port:    port,
		handler: handler,
		done:    make(chan struct{}),
	}
}

func (l *SerialLink) configure(freq, syncWord int) error {
	data, err := json.Marshal(models.ModemConfig{Cmd: "CONFIG", Frequency: freq, SyncWord: syncWord})
	if err != nil {
		return err
	}
	return l.writeLine(append(data, '\n'))
}

func (l *SerialLink) readLoop() {
	defer close(l.done)

	reader := bufio.NewReaderSize(l.port, maxFrameSize)
	var pending []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		pending = append(pending, chunk...)
		switch err {
		case nil:
			l.dispatch(pending)
			pending = pending[:0]
		case bufio.ErrBufferFull:
			if len(pending) > maxFrameSize {
				log.Printf("ERROR: LoRa frame exceeds %d bytes, dropped", maxFrameSize)
				pending = pending[:0]
			}
		default:
			if l.isClosed() {
				return
			}
			// tarm/serial reports a read timeout as io.EOF with no data
			if err == io.EOF {
				continue
			}
			log.Printf("ERROR: LoRa modem read: %v", err)
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (l *SerialLink) dispatch(line []byte) {
	frame, err := DecodeFrame(line)
	if err != nil {
		log.Printf("ERROR: LoRa frame %q: %v", line, err)
		return
	}
	l.handler(frame)
}

func (l *SerialLink) Send(deviceID int, kind models.CommandKind, value int) error {
	line, err := EncodeCommand(deviceID, kind, value)
	if err != nil {
		return err
	}
	if err := l.writeLine(line); err != nil {
		return err
	}
	log.Printf("LoRa -> device %d: %s %d", deviceID, kind, value)
	return nil
}

func (l *SerialLink) writeLine(line []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if l.closed {
		return ErrLinkClosed
	}
	if _, err := l.port.Write(line); err != nil {
		return fmt.Errorf("LoRa modem write failed: %w", err)
	}
	return nil
}

func (l *SerialLink) isClosed() bool {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.closed
}

func (l *SerialLink) Close() error {
	l.wmu.Lock()
	if l.closed {
		l.wmu.Unlock()
		return nil
	}
	l.closed = true
	l.wmu.Unlock()

	err := l.port.Close()
	<-l.done
	return err
}
