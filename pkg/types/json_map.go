package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores a free-form JSON object in a jsonb column. Billing and
// shipping address snapshots use it so the order keeps whatever structure the
// client submitted at checkout time.
type JSONMap map[string]any

// Value marshals the map for storage. A nil map is stored as an empty object,
// never SQL NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}
	return raw, nil
}

// Scan decodes a jsonb column back into the map.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}

	decoded := JSONMap{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("unmarshal json map: %w", err)
	}
	*m = decoded
	return nil
}
