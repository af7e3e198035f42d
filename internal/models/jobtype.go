package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category separates scheduled maintenance from fault-driven repairs.
type Category string

const (
	CategoryPreventive Category = "preventive"
	CategoryCorrective Category = "corrective"
)

// JobType is an entry of the job-type catalog used to build preventive packages.
type JobType struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Category     Category           `bson:"category" json:"category"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	DefaultHours *float64           `bson:"default_hours,omitempty" json:"default_hours,omitempty"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

type NewJobTypeForm struct {
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Description  string   `json:"description,omitempty"`
	DefaultHours *float64 `json:"default_hours,omitempty"`
}

type JobTypePatch struct {
	Name         *string   `json:"name,omitempty"`
	Category     *Category `json:"category,omitempty"`
	Description  *string   `json:"description,omitempty"`
	DefaultHours *float64  `json:"default_hours,omitempty"`
}

// IsValidCategory checks if a job category is known.
func IsValidCategory(c Category) bool {
	return c == CategoryPreventive || c == CategoryCorrective
}
