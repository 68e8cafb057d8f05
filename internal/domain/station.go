package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type StationStatus string

const (
	StationStatusActive      StationStatus = "active"
	StationStatusOccupied    StationStatus = "occupied"
	StationStatusFaulted     StationStatus = "faulted"
	StationStatusMaintenance StationStatus = "maintenance"
)

// RegionOther is the sentinel region for stations with no resolvable region.
const RegionOther = "Other"

// Station represents a charging station in the network directory.
type Station struct {
	ID         int64         `json:"id" gorm:"primaryKey"`
	Name       string        `json:"name"`
	Status     StationStatus `json:"status"`
	Region     string        `json:"region,omitempty"`
	Area       string        `json:"area,omitempty"`
	City       string        `json:"city,omitempty"`
	Address    string        `json:"address,omitempty"`
	Location   JSONMap       `json:"location,omitempty" gorm:"type:jsonb"`
	Chargers   int           `json:"chargers"`
	MaxPowerKW float64       `json:"max_power_kw"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// JSONMap is a helper type for JSONB columns
type JSONMap map[string]interface{}

// Value implements driver.Valuer for JSONB storage.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage.
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

// ResolveRegion returns the station's region, reading the explicit
// region/area/city fields first and falling back to the same keys inside the
// structured location field. Stations with no resolvable region land in
// RegionOther.
func (s *Station) ResolveRegion() string {
	if s.Region != "" {
		return s.Region
	}
	if s.Area != "" {
		return s.Area
	}
	if s.City != "" {
		return s.City
	}
	for _, key := range []string{"region", "area", "city"} {
		if v, ok := s.Location[key]; ok {
			if str, ok := v.(string); ok && str != "" {
				return str
			}
		}
	}
	return RegionOther
}

// StationRegionMap maps station IDs to resolved region names. It is rebuilt
// wholesale whenever the station directory is refreshed and is read-only
// within a refresh cycle.
type StationRegionMap map[int64]string

// BuildStationRegionMap resolves the region of every station in the directory.
func BuildStationRegionMap(stations []Station) StationRegionMap {
	m := make(StationRegionMap, len(stations))
	for i := range stations {
		m[stations[i].ID] = stations[i].ResolveRegion()
	}
	return m
}
