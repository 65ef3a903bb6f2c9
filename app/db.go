package app

import (
	"database/sql"
	"fmt"

	"loragw/config"
)

// LoadDeviceEntries reads the device table from Postgres.
func LoadDeviceEntries(db *sql.DB) ([]config.DeviceEntry, error) {
	query := `SELECT device_id, name FROM lora_devices ORDER BY device_id`
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lora devices: %w", err)
	}
	defer rows.Close()

	var result []config.DeviceEntry
	for rows.Next() {
		var e config.DeviceEntry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("failed to scan lora device: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
