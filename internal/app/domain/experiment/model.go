// Package experiment defines the space experiment record and its closed
// type enumeration.
package experiment

import "fmt"

// Type identifies the research category of an experiment. The set is
// closed; records never carry a value outside of Types.
type Type string

const (
	TypeSpaceDataStorage Type = "space_data_storage"
	TypeSpaceAgriculture Type = "space_agriculture"
	TypeAerospaceMedical Type = "aerospace_medical"
	TypeEarthAtmosphere  Type = "earth_atmosphere"
	Type3DPrinting       Type = "3d_printing"
	TypeRadiationTesting Type = "radiation_testing"
)

// Types lists every valid experiment type in a stable order. Aggregations
// iterate this slice so their output covers members with zero records.
var Types = []Type{
	TypeSpaceDataStorage,
	TypeSpaceAgriculture,
	TypeAerospaceMedical,
	TypeEarthAtmosphere,
	Type3DPrinting,
	TypeRadiationTesting,
}

// ParseType validates a raw string against the closed enumeration.
func ParseType(raw string) (Type, error) {
	for _, t := range Types {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid experiment type %q", raw)
}

// Experiment is a submitted space experiment. The id is assigned by the
// store and immutable; Verified is the only field mutable after creation.
type Experiment struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         Type   `json:"experimentType"`
	IPFSDataHash string `json:"ipfsDataHash"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp   int64   `json:"timestamp"`
	Scientist   string  `json:"scientist"`
	Verified    bool    `json:"verified"`
	DataFileURL *string `json:"dataFileUrl"`
}

// TypeStat summarises one experiment type bucket.
type TypeStat struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Percent  int `json:"percent"`
}
