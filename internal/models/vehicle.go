package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleClass is the truck series a vehicle belongs to.
type VehicleClass string

const (
	VehicleClassR VehicleClass = "R"
	VehicleClassK VehicleClass = "K"
)

// VehicleState is the operability state of a vehicle.
type VehicleState string

const (
	VehicleOperative        VehicleState = "operative"
	VehicleUnderMaintenance VehicleState = "under_maintenance"
	VehicleOutOfService     VehicleState = "out_of_service"
)

// Vehicle represents a truck of the hangar fleet.
type Vehicle struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"` // R06..R92, K01..K14
	Class     VehicleClass       `bson:"class" json:"class"`
	Model     string             `bson:"model" json:"model"`
	Meter     float64            `bson:"meter" json:"meter"` // operating hours
	State     VehicleState       `bson:"state" json:"state"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// VehiclePatch carries the fields of a vehicle update; nil fields are left untouched.
type VehiclePatch struct {
	Code  *string       `json:"code,omitempty"`
	Class *VehicleClass `json:"class,omitempty"`
	Model *string       `json:"model,omitempty"`
	Meter *float64      `json:"meter,omitempty"`
}

// NewVehicleForm is the payload used to register a vehicle.
type NewVehicleForm struct {
	Code  string       `json:"code"`
	Class VehicleClass `json:"class"`
	Model string       `json:"model"`
	Meter float64      `json:"meter"`
}

// IsValidVehicleClass checks if a vehicle class is known.
func IsValidVehicleClass(c VehicleClass) bool {
	return c == VehicleClassR || c == VehicleClassK
}
