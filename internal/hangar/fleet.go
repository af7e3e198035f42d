package hangar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultModel is the truck model of the seeded fleet.
const DefaultModel = "Kalmar Ottawa T2"

// DefaultFleet returns the hangar fleet: R06 to R92 and K01 to K14, all
// operative with a zero meter.
func DefaultFleet(now time.Time) []models.Vehicle {
	fleet := make([]models.Vehicle, 0, 101)
	add := func(code string, class models.VehicleClass) {
		fleet = append(fleet, models.Vehicle{
			ID:        primitive.NewObjectID(),
			Code:      code,
			Class:     class,
			Model:     DefaultModel,
			State:     models.VehicleOperative,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	for n := 6; n <= 92; n++ {
		add(fmt.Sprintf("R%02d", n), models.VehicleClassR)
	}
	for n := 1; n <= 14; n++ {
		add(fmt.Sprintf("K%02d", n), models.VehicleClassK)
	}
	return fleet
}

// SeedFleet inserts the default fleet when the store holds no vehicles. It
// returns the number of vehicles added.
func (s *Store) SeedFleet(ctx context.Context) (int, error) {
	added := 0
	err := s.Update(ctx, "seed_fleet", func(tx *Tx) error {
		if len(tx.state.Vehicles) > 0 {
			return nil
		}
		for _, v := range DefaultFleet(tx.Now()) {
			tx.state.Vehicles = append(tx.state.Vehicles, v)
			tx.inserted(CollectionVehicles, v.ID, v)
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func codeTaken(st *State, code string, except primitive.ObjectID) bool {
	for _, v := range st.Vehicles {
		if v.ID != except && strings.EqualFold(v.Code, code) {
			return true
		}
	}
	return false
}

// AddVehicle registers an operative vehicle.
func (s *Store) AddVehicle(ctx context.Context, form models.NewVehicleForm) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.Update(ctx, "add_vehicle", func(tx *Tx) error {
		code := strings.ToUpper(strings.TrimSpace(form.Code))
		fe := fieldErrors{}
		if code == "" {
			fe.add("code", "is required")
		} else if codeTaken(tx.state, code, primitive.NilObjectID) {
			fe.add("code", "already registered")
		}
		if !models.IsValidVehicleClass(form.Class) {
			fe.add("class", "must be R or K")
		}
		if form.Meter < 0 {
			fe.add("meter", "must not be negative")
		}
		if err := fe.err(); err != nil {
			return err
		}
		model := strings.TrimSpace(form.Model)
		if model == "" {
			model = DefaultModel
		}
		v = models.Vehicle{
			ID:        primitive.NewObjectID(),
			Code:      code,
			Class:     form.Class,
			Model:     model,
			Meter:     form.Meter,
			State:     models.VehicleOperative,
			CreatedAt: tx.Now(),
			UpdatedAt: tx.Now(),
		}
		tx.state.Vehicles = append(tx.state.Vehicles, v)
		tx.inserted(CollectionVehicles, v.ID, v)
		return nil
	})
	return v, err
}

// UpdateVehicle merges the non-nil patch fields into a vehicle. The state
// is owned by the job transitions and cannot be patched.
func (s *Store) UpdateVehicle(ctx context.Context, id primitive.ObjectID, p models.VehiclePatch) (models.Vehicle, error) {
	var v models.Vehicle
	err := s.Update(ctx, "update_vehicle", func(tx *Tx) error {
		i := tx.state.vehicleIndex(id)
		if i < 0 {
			return fmt.Errorf("vehicle %s: %w", id.Hex(), ErrNotFound)
		}
		fe := fieldErrors{}
		var code string
		if p.Code != nil {
			code = strings.ToUpper(strings.TrimSpace(*p.Code))
			if code == "" {
				fe.add("code", "must not be empty")
			} else if codeTaken(tx.state, code, id) {
				fe.add("code", "already registered")
			}
		}
		if p.Class != nil && !models.IsValidVehicleClass(*p.Class) {
			fe.add("class", "must be R or K")
		}
		if p.Meter != nil && *p.Meter < 0 {
			fe.add("meter", "must not be negative")
		}
		if err := fe.err(); err != nil {
			return err
		}
		cur := &tx.state.Vehicles[i]
		if p.Code != nil {
			cur.Code = code
		}
		if p.Class != nil {
			cur.Class = *p.Class
		}
		if p.Model != nil {
			cur.Model = strings.TrimSpace(*p.Model)
		}
		if p.Meter != nil {
			cur.Meter = *p.Meter
		}
		cur.UpdatedAt = tx.Now()
		v = *cur
		tx.updated(CollectionVehicles, v.ID, v)
		return nil
	})
	return v, err
}

// DeleteVehicle removes a vehicle. Jobs referencing it are kept.
func (s *Store) DeleteVehicle(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_vehicle", func(tx *Tx) error {
		i := tx.state.vehicleIndex(id)
		if i < 0 {
			return fmt.Errorf("vehicle %s: %w", id.Hex(), ErrNotFound)
		}
		tx.state.Vehicles = append(tx.state.Vehicles[:i], tx.state.Vehicles[i+1:]...)
		tx.deleted(CollectionVehicles, id)
		return nil
	})
}
