package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceEntry is one id:name pair of the device table.
type DeviceEntry struct {
	ID   int
	Name string
}

// ParseDeviceMap parses "1:Light1,2:Light2" into entries, preserving order.
// Blank items are skipped; anything else malformed is an error.
func ParseDeviceMap(s string) ([]DeviceEntry, error) {
	var entries []DeviceEntry
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		idStr, name, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not id:name", ErrInvalidDeviceMap, item)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("%w: bad id in %q: %w", ErrInvalidDeviceMap, item, err)
		}
		entries = append(entries, DeviceEntry{ID: id, Name: strings.TrimSpace(name)})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no devices", ErrInvalidDeviceMap)
	}
	return entries, nil
}
