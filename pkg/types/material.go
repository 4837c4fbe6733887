package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MaterialLine is one entry of a work order's bill of materials.
type MaterialLine struct {
	Item        string `json:"item"`
	QtyRequired int    `json:"qty_required"`
	QtyUsed     int    `json:"qty_used"`
}

// MaterialLines preserves entry order when serialized to jsonb.
type MaterialLines []MaterialLine

// Value implements driver.Valuer. A nil list is stored as an empty json
// array so NOT NULL jsonb columns accept rows created without materials.
func (m MaterialLines) Value() (driver.Value, error) {
	if m == nil {
		m = MaterialLines{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MaterialLines) Scan(value any) error {
	return scanJSON(value, m)
}

// SkillTags is a technician's capability tag set, jsonb-serialized.
type SkillTags []string

// Value implements driver.Valuer. A nil set is stored as an empty json array.
func (s SkillTags) Value() (driver.Value, error) {
	if s == nil {
		s = SkillTags{}
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SkillTags) Scan(value any) error {
	return scanJSON(value, s)
}

// Contains reports whether the tag set includes the given skill.
func (s SkillTags) Contains(skill string) bool {
	for _, tag := range s {
		if tag == skill {
			return true
		}
	}
	return false
}

// Intersects reports whether any of the requested skills is present.
func (s SkillTags) Intersects(requested []string) bool {
	for _, skill := range requested {
		if s.Contains(skill) {
			return true
		}
	}
	return false
}

func scanJSON(value any, dst any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("unsupported jsonb source type %T", value)
}
