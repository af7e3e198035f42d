package hangar

import (
	"context"
	"fmt"
	"strings"

	"github.com/leogoca00/hangar-sprc/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deleting a technician, contractor or job type never cascades. Jobs and
// schedule items keep the dangling reference and lookups report it missing.

func (s *Store) AddTechnician(ctx context.Context, form models.NewTechnicianForm) (models.Technician, error) {
	var t models.Technician
	err := s.Update(ctx, "add_technician", func(tx *Tx) error {
		fe := fieldErrors{}
		if strings.TrimSpace(form.Name) == "" {
			fe.add("name", "is required")
		}
		if !models.IsValidSpecialty(form.Specialty) {
			fe.add("specialty", "must be mechanic, electrician or multirole")
		}
		if !models.IsValidShift(form.Shift) {
			fe.add("shift", "must be day or night")
		}
		if err := fe.err(); err != nil {
			return err
		}
		t = models.Technician{
			ID:        primitive.NewObjectID(),
			Name:      strings.TrimSpace(form.Name),
			Specialty: form.Specialty,
			Shift:     form.Shift,
			Active:    true,
			CreatedAt: tx.Now(),
			UpdatedAt: tx.Now(),
		}
		tx.state.Technicians = append(tx.state.Technicians, t)
		tx.inserted(CollectionTechnicians, t.ID, t)
		return nil
	})
	return t, err
}

func (s *Store) UpdateTechnician(ctx context.Context, id primitive.ObjectID, p models.TechnicianPatch) (models.Technician, error) {
	var t models.Technician
	err := s.Update(ctx, "update_technician", func(tx *Tx) error {
		i := tx.state.technicianIndex(id)
		if i < 0 {
			return fmt.Errorf("technician %s: %w", id.Hex(), ErrNotFound)
		}
		fe := fieldErrors{}
		if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
			fe.add("name", "must not be empty")
		}
		if p.Specialty != nil && !models.IsValidSpecialty(*p.Specialty) {
			fe.add("specialty", "must be mechanic, electrician or multirole")
		}
		if p.Shift != nil && !models.IsValidShift(*p.Shift) {
			fe.add("shift", "must be day or night")
		}
		if err := fe.err(); err != nil {
			return err
		}
		cur := &tx.state.Technicians[i]
		if p.Name != nil {
			cur.Name = strings.TrimSpace(*p.Name)
		}
		if p.Specialty != nil {
			cur.Specialty = *p.Specialty
		}
		if p.Shift != nil {
			cur.Shift = *p.Shift
		}
		cur.UpdatedAt = tx.Now()
		t = *cur
		tx.updated(CollectionTechnicians, t.ID, t)
		return nil
	})
	return t, err
}

func (s *Store) ToggleTechnician(ctx context.Context, id primitive.ObjectID) (models.Technician, error) {
	var t models.Technician
	err := s.Update(ctx, "toggle_technician", func(tx *Tx) error {
		i := tx.state.technicianIndex(id)
		if i < 0 {
			return fmt.Errorf("technician %s: %w", id.Hex(), ErrNotFound)
		}
		cur := &tx.state.Technicians[i]
		cur.Active = !cur.Active
		cur.UpdatedAt = tx.Now()
		t = *cur
		tx.updated(CollectionTechnicians, t.ID, t)
		return nil
	})
	return t, err
}

func (s *Store) DeleteTechnician(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_technician", func(tx *Tx) error {
		i := tx.state.technicianIndex(id)
		if i < 0 {
			return fmt.Errorf("technician %s: %w", id.Hex(), ErrNotFound)
		}
		tx.state.Technicians = append(tx.state.Technicians[:i], tx.state.Technicians[i+1:]...)
		tx.deleted(CollectionTechnicians, id)
		return nil
	})
}

func (s *Store) AddContractor(ctx context.Context, form models.NewContractorForm) (models.Contractor, error) {
	var c models.Contractor
	err := s.Update(ctx, "add_contractor", func(tx *Tx) error {
		fe := fieldErrors{}
		if strings.TrimSpace(form.Name) == "" {
			fe.add("name", "is required")
		}
		if strings.TrimSpace(form.Specialty) == "" {
			fe.add("specialty", "is required")
		}
		if err := fe.err(); err != nil {
			return err
		}
		c = models.Contractor{
			ID:        primitive.NewObjectID(),
			Name:      strings.TrimSpace(form.Name),
			Specialty: strings.TrimSpace(form.Specialty),
			Contact:   strings.TrimSpace(form.Contact),
			Active:    true,
			CreatedAt: tx.Now(),
			UpdatedAt: tx.Now(),
		}
		tx.state.Contractors = append(tx.state.Contractors, c)
		tx.inserted(CollectionContractors, c.ID, c)
		return nil
	})
	return c, err
}

func (s *Store) UpdateContractor(ctx context.Context, id primitive.ObjectID, p models.ContractorPatch) (models.Contractor, error) {
	var c models.Contractor
	err := s.Update(ctx, "update_contractor", func(tx *Tx) error {
		i := tx.state.contractorIndex(id)
		if i < 0 {
			return fmt.Errorf("contractor %s: %w", id.Hex(), ErrNotFound)
		}
		fe := fieldErrors{}
		if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
			fe.add("name", "must not be empty")
		}
		if p.Specialty != nil && strings.TrimSpace(*p.Specialty) == "" {
			fe.add("specialty", "must not be empty")
		}
		if err := fe.err(); err != nil {
			return err
		}
		cur := &tx.state.Contractors[i]
		if p.Name != nil {
			cur.Name = strings.TrimSpace(*p.Name)
		}
		if p.Specialty != nil {
			cur.Specialty = strings.TrimSpace(*p.Specialty)
		}
		if p.Contact != nil {
			cur.Contact = strings.TrimSpace(*p.Contact)
		}
		cur.UpdatedAt = tx.Now()
		c = *cur
		tx.updated(CollectionContractors, c.ID, c)
		return nil
	})
	return c, err
}

func (s *Store) ToggleContractor(ctx context.Context, id primitive.ObjectID) (models.Contractor, error) {
	var c models.Contractor
	err := s.Update(ctx, "toggle_contractor", func(tx *Tx) error {
		i := tx.state.contractorIndex(id)
		if i < 0 {
			return fmt.Errorf("contractor %s: %w", id.Hex(), ErrNotFound)
		}
		cur := &tx.state.Contractors[i]
		cur.Active = !cur.Active
		cur.UpdatedAt = tx.Now()
		c = *cur
		tx.updated(CollectionContractors, c.ID, c)
		return nil
	})
	return c, err
}

func (s *Store) DeleteContractor(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_contractor", func(tx *Tx) error {
		i := tx.state.contractorIndex(id)
		if i < 0 {
			return fmt.Errorf("contractor %s: %w", id.Hex(), ErrNotFound)
		}
		tx.state.Contractors = append(tx.state.Contractors[:i], tx.state.Contractors[i+1:]...)
		tx.deleted(CollectionContractors, id)
		return nil
	})
}

func validHours(h *float64) bool { return h == nil || *h > 0 }

func (s *Store) AddJobType(ctx context.Context, form models.NewJobTypeForm) (models.JobType, error) {
	var jt models.JobType
	err := s.Update(ctx, "add_job_type", func(tx *Tx) error {
		fe := fieldErrors{}
		if strings.TrimSpace(form.Name) == "" {
			fe.add("name", "is required")
		}
		if !models.IsValidCategory(form.Category) {
			fe.add("category", "must be preventive or corrective")
		}
		if !validHours(form.DefaultHours) {
			fe.add("default_hours", "must be greater than zero")
		}
		if err := fe.err(); err != nil {
			return err
		}
		jt = cloneJobType(models.JobType{
			ID:           primitive.NewObjectID(),
			Name:         strings.TrimSpace(form.Name),
			Category:     form.Category,
			Description:  strings.TrimSpace(form.Description),
			DefaultHours: form.DefaultHours,
			Active:       true,
			CreatedAt:    tx.Now(),
			UpdatedAt:    tx.Now(),
		})
		tx.state.JobTypes = append(tx.state.JobTypes, jt)
		tx.inserted(CollectionJobTypes, jt.ID, cloneJobType(jt))
		jt = cloneJobType(jt)
		return nil
	})
	return jt, err
}

func (s *Store) UpdateJobType(ctx context.Context, id primitive.ObjectID, p models.JobTypePatch) (models.JobType, error) {
	var jt models.JobType
	err := s.Update(ctx, "update_job_type", func(tx *Tx) error {
		i := tx.state.jobTypeIndex(id)
		if i < 0 {
			return fmt.Errorf("job type %s: %w", id.Hex(), ErrNotFound)
		}
		fe := fieldErrors{}
		if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
			fe.add("name", "must not be empty")
		}
		if p.Category != nil && !models.IsValidCategory(*p.Category) {
			fe.add("category", "must be preventive or corrective")
		}
		if !validHours(p.DefaultHours) {
			fe.add("default_hours", "must be greater than zero")
		}
		if err := fe.err(); err != nil {
			return err
		}
		cur := &tx.state.JobTypes[i]
		if p.Name != nil {
			cur.Name = strings.TrimSpace(*p.Name)
		}
		if p.Category != nil {
			cur.Category = *p.Category
		}
		if p.Description != nil {
			cur.Description = strings.TrimSpace(*p.Description)
		}
		if p.DefaultHours != nil {
			h := *p.DefaultHours
			cur.DefaultHours = &h
		}
		cur.UpdatedAt = tx.Now()
		jt = cloneJobType(*cur)
		tx.updated(CollectionJobTypes, jt.ID, cloneJobType(jt))
		return nil
	})
	return jt, err
}

func (s *Store) ToggleJobType(ctx context.Context, id primitive.ObjectID) (models.JobType, error) {
	var jt models.JobType
	err := s.Update(ctx, "toggle_job_type", func(tx *Tx) error {
		i := tx.state.jobTypeIndex(id)
		if i < 0 {
			return fmt.Errorf("job type %s: %w", id.Hex(), ErrNotFound)
		}
		cur := &tx.state.JobTypes[i]
		cur.Active = !cur.Active
		cur.UpdatedAt = tx.Now()
		jt = cloneJobType(*cur)
		tx.updated(CollectionJobTypes, jt.ID, cloneJobType(jt))
		return nil
	})
	return jt, err
}

func (s *Store) DeleteJobType(ctx context.Context, id primitive.ObjectID) error {
	return s.Update(ctx, "delete_job_type", func(tx *Tx) error {
		i := tx.state.jobTypeIndex(id)
		if i < 0 {
			return fmt.Errorf("job type %s: %w", id.Hex(), ErrNotFound)
		}
		tx.state.JobTypes = append(tx.state.JobTypes[:i], tx.state.JobTypes[i+1:]...)
		tx.deleted(CollectionJobTypes, id)
		return nil
	})
}
