package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"loragw/models"
	"loragw/utils"
)

var (
	ErrMalformedRPC  = errors.New("malformed rpc request")
	ErrInvalidParams = errors.New("invalid rpc params")
)

// RPC method names of the gateway API.
const (
	MethodSetAutoMode    = "setAutoMode"
	MethodSetYellowColor = "setYellowColor"
	MethodSetBrightness  = "setBrightness"
)

// Command is one of SetAutoMode, SetYellowColor, SetBrightness or
// UnknownCommand.
type Command interface {
	isCommand()
}

type SetAutoMode struct{ Enabled bool }

type SetYellowColor struct{ Yellow bool }

type SetBrightness struct{ Level int }

// UnknownCommand is a method the gateway does not support. Routing it is a
// no-op.
type UnknownCommand struct{ Method string }

func (SetAutoMode) isCommand()    {}
func (SetYellowColor) isCommand() {}
func (SetBrightness) isCommand()  {}
func (UnknownCommand) isCommand() {}

// ParseCommand coerces params for a known method. Brightness is clamped to
// [0, maxBrightness].
func ParseCommand(method string, params any, maxBrightness int) (Command, error) {
	switch method {
	case MethodSetAutoMode:
		b, err := utils.ToBool(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s(%v): %w", ErrInvalidParams, method, params, err)
		}
		return SetAutoMode{Enabled: b}, nil
	case MethodSetYellowColor:
		b, err := utils.ToBool(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s(%v): %w", ErrInvalidParams, method, params, err)
		}
		return SetYellowColor{Yellow: b}, nil
	case MethodSetBrightness:
		// switch widgets send true/false; treat them as 1/0
		if b, ok := params.(bool); ok {
			return SetBrightness{Level: utils.Clamp(boolPayload(b, 1, 0), 0, maxBrightness)}, nil
		}
		n, err := utils.ToInt(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s(%v): %w", ErrInvalidParams, method, params, err)
		}
		return SetBrightness{Level: utils.Clamp(n, 0, maxBrightness)}, nil
	default:
		return UnknownCommand{Method: method}, nil
	}
}

// DecodeRPC parses a gateway RPC message
// {"device": name, "data": {"method": m, "params": p}}.
func DecodeRPC(payload []byte) (models.RpcRequest, error) {
	var req models.RpcRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrMalformedRPC, err)
	}
	if req.Device == "" {
		return req, fmt.Errorf("%w: missing device", ErrMalformedRPC)
	}
	if req.Data == nil {
		return req, fmt.Errorf("%w: missing data", ErrMalformedRPC)
	}
	if req.Data.Method == "" {
		return req, fmt.Errorf("%w: missing method", ErrMalformedRPC)
	}
	return req, nil
}

// RadioSender is the outbound radio operation, satisfied by radio.Link.
type RadioSender interface {
	Send(deviceID int, kind models.CommandKind, value int) error
}

// CommandRouter applies cloud commands to the shadow, forwards them to the
// radio and reconciles the cloud attribute view.
type CommandRouter struct {
	registry      *Registry
	store         *ShadowStore
	emitter       *ReconciliationEmitter
	events        *ShadowEvents
	maxBrightness int

	radioMu sync.RWMutex
	radio   RadioSender
}

// AttachRadio makes the link available for forwarding. Commands routed
// before this are applied and reconciled but not forwarded.
func (r *CommandRouter) AttachRadio(link RadioSender) {
	r.radioMu.Lock()
	r.radio = link
	r.radioMu.Unlock()
}

func (r *CommandRouter) sender() RadioSender {
	r.radioMu.RLock()
	defer r.radioMu.RUnlock()
	return r.radio
}

// HandleRPC is the broker callback body. Nothing escapes it: failures are
// logged and leave the shadow untouched.
func (r *CommandRouter) HandleRPC(payload []byte) {
	if err := r.RouteRPC(payload); err != nil {
		log.Printf("ERROR: RPC %s: %v", payload, err)
	}
}

// RouteRPC decodes and routes one RPC message. Unknown devices and methods
// are not errors.
func (r *CommandRouter) RouteRPC(payload []byte) error {
	req, err := DecodeRPC(payload)
	if err != nil {
		return err
	}
	log.Printf("[RPC] %s %s(%v)", req.Device, req.Data.Method, req.Data.Params)

	id, ok := r.registry.ID(req.Device)
	if !ok {
		return nil
	}
	cmd, err := ParseCommand(req.Data.Method, req.Data.Params, r.maxBrightness)
	if err != nil {
		return err
	}
	r.Dispatch(id, cmd)
	return nil
}

// Dispatch applies cmd to device id. It reports whether anything changed.
func (r *CommandRouter) Dispatch(id int, cmd Command) bool {
	var (
		shadow models.DeviceShadow
		ok     bool
		kind   models.CommandKind
		value  int
	)
	switch c := cmd.(type) {
	case SetAutoMode:
		shadow, ok = r.store.SetAutoMode(id, c.Enabled)
		kind, value = models.CommandAuto, boolPayload(c.Enabled, 1, 0)
	case SetYellowColor:
		shadow, ok = r.store.SetYellowColor(id, c.Yellow)
		kind, value = models.CommandColor, boolPayload(c.Yellow, models.ColorYellow, models.ColorWhite)
	case SetBrightness:
		shadow, ok = r.store.SetBrightness(id, c.Level)
		kind, value = models.CommandDim, c.Level
	case UnknownCommand:
		log.Printf("RPC method %q not supported, ignored", c.Method)
		return false
	default:
		log.Printf("ERROR: unhandled command type %T", cmd)
		return false
	}
	if !ok {
		return false
	}

	if link := r.sender(); link != nil {
		if err := link.Send(id, kind, value); err != nil {
			log.Printf("ERROR: LoRa send %s %d to device %d: %v", kind, value, id, err)
		}
	}

	r.emitter.Emit(id)
	r.events.Report(id, shadow, sourceCommand)
	return true
}

func boolPayload(b bool, yes, no int) int {
	if b {
		return yes
	}
	return no
}
