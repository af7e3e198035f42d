package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Specialty is the skill of an internal technician.
type Specialty string

const (
	SpecialtyMechanic    Specialty = "mechanic"
	SpecialtyElectrician Specialty = "electrician"
	SpecialtyMultirole   Specialty = "multirole"
)

// Shift is the work shift of a technician.
type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

// Technician represents an internal hangar technician.
type Technician struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Specialty Specialty          `bson:"specialty" json:"specialty"`
	Shift     Shift              `bson:"shift" json:"shift"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Contractor represents an external contractor company or person.
type Contractor struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Specialty string             `bson:"specialty" json:"specialty"`
	Contact   string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type NewTechnicianForm struct {
	Name      string    `json:"name"`
	Specialty Specialty `json:"specialty"`
	Shift     Shift     `json:"shift"`
}

type TechnicianPatch struct {
	Name      *string    `json:"name,omitempty"`
	Specialty *Specialty `json:"specialty,omitempty"`
	Shift     *Shift     `json:"shift,omitempty"`
}

type NewContractorForm struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Contact   string `json:"contact,omitempty"`
}

type ContractorPatch struct {
	Name      *string `json:"name,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
	Contact   *string `json:"contact,omitempty"`
}

// IsValidSpecialty checks if a technician specialty is known.
func IsValidSpecialty(s Specialty) bool {
	switch s {
	case SpecialtyMechanic, SpecialtyElectrician, SpecialtyMultirole:
		return true
	default:
		return false
	}
}

// IsValidShift checks if a technician shift is known.
func IsValidShift(s Shift) bool {
	return s == ShiftDay || s == ShiftNight
}
