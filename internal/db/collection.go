package db

import (
	"fmt"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UsersCollection holds staff accounts.
const UsersCollection = "users"

// Many-to-many links and job parts live in their own collections.
const (
	collJobTechnicians      = "job_technicians"
	collScheduleTechnicians = "schedule_technicians"
	collJobParts            = "job_parts"
)

type jobTechnicianDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	JobID        primitive.ObjectID `bson:"job_id"`
	TechnicianID primitive.ObjectID `bson:"technician_id"`
}

type scheduleTechnicianDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ScheduleID   primitive.ObjectID `bson:"schedule_id"`
	TechnicianID primitive.ObjectID `bson:"technician_id"`
}

// partDoc stores the quantity as a decimal string so no precision is lost.
type partDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	JobID    primitive.ObjectID `bson:"job_id"`
	Position int                `bson:"position"`
	Name     string             `bson:"name"`
	Quantity string             `bson:"quantity"`
	Unit     string             `bson:"unit,omitempty"`
}

func toPartDoc(jobID primitive.ObjectID, pos int, p models.Part) partDoc {
	return partDoc{JobID: jobID, Position: pos, Name: p.Name, Quantity: p.Quantity.String(), Unit: p.Unit}
}

func (d partDoc) part() (models.Part, error) {
	q, err := decimal.NewFromString(d.Quantity)
	if err != nil {
		return models.Part{}, fmt.Errorf("part %s of job %s: %w", d.Name, d.JobID.Hex(), err)
	}
	return models.Part{Name: d.Name, Quantity: q, Unit: d.Unit}, nil
}
