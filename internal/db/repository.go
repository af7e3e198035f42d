package db

import (
	"context"
	"fmt"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists hangar change sets to MongoDB and loads collections
// back. It implements hangar.Persister and hangar.Source.
type Repository struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewRepository creates a repository over the named database. With
// transactions enabled every change set is written in one multi-document
// transaction, which needs a replica set.
func NewRepository(client *mongo.Client, database string, transactions bool) *Repository {
	return &Repository{client: client, db: client.Database(database), transactions: transactions}
}

// Persist writes every change of one mutation.
func (r *Repository) Persist(ctx context.Context, changes []hangar.Change) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("mongo repository is nil")
	}
	if len(changes) == 0 {
		return nil
	}
	if !r.transactions {
		return r.apply(ctx, changes)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.apply(sc, changes)
	})
	if err != nil {
		return fmt.Errorf("persist %d changes: %w", len(changes), err)
	}
	return nil
}

func (r *Repository) apply(ctx context.Context, changes []hangar.Change) error {
	for _, c := range changes {
		if err := r.applyOne(ctx, c); err != nil {
			return fmt.Errorf("%s %s %s: %w", c.Action, c.Collection, c.ID.Hex(), err)
		}
	}
	return nil
}

func (r *Repository) applyOne(ctx context.Context, c hangar.Change) error {
	coll := r.db.Collection(string(c.Collection))
	if c.Action == hangar.ActionDelete {
		if _, err := coll.DeleteOne(ctx, bson.M{"_id": c.ID}); err != nil {
			return err
		}
		switch c.Collection {
		case hangar.CollectionJobs:
			return r.syncJobLinks(ctx, c.ID, nil, nil)
		case hangar.CollectionSchedule:
			return r.syncScheduleLinks(ctx, c.ID, nil)
		}
		return nil
	}

	if c.After == nil {
		return fmt.Errorf("missing record value")
	}
	upsert := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c.After, upsert); err != nil {
		return err
	}

	switch v := c.After.(type) {
	case models.Job:
		var techs []primitive.ObjectID
		if v.Assignment.Mode == models.AssignInternal {
			techs = v.Assignment.TechnicianIDs
		}
		return r.syncJobLinks(ctx, v.ID, techs, v.Parts)
	case models.ScheduleItem:
		return r.syncScheduleLinks(ctx, v.ID, v.TechnicianIDs)
	}
	return nil
}

// syncJobLinks replaces the technician links and parts of a job.
func (r *Repository) syncJobLinks(ctx context.Context, jobID primitive.ObjectID, techs []primitive.ObjectID, parts []models.Part) error {
	links := r.db.Collection(collJobTechnicians)
	if _, err := links.DeleteMany(ctx, bson.M{"job_id": jobID}); err != nil {
		return fmt.Errorf("clear %s: %w", collJobTechnicians, err)
	}
	if len(techs) > 0 {
		docs := make([]interface{}, 0, len(techs))
		for _, t := range techs {
			docs = append(docs, jobTechnicianDoc{JobID: jobID, TechnicianID: t})
		}
		if _, err := links.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert %s: %w", collJobTechnicians, err)
		}
	}

	partsColl := r.db.Collection(collJobParts)
	if _, err := partsColl.DeleteMany(ctx, bson.M{"job_id": jobID}); err != nil {
		return fmt.Errorf("clear %s: %w", collJobParts, err)
	}
	if len(parts) > 0 {
		docs := make([]interface{}, 0, len(parts))
		for i, p := range parts {
			docs = append(docs, toPartDoc(jobID, i, p))
		}
		if _, err := partsColl.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert %s: %w", collJobParts, err)
		}
	}
	return nil
}

func (r *Repository) syncScheduleLinks(ctx context.Context, itemID primitive.ObjectID, techs []primitive.ObjectID) error {
	links := r.db.Collection(collScheduleTechnicians)
	if _, err := links.DeleteMany(ctx, bson.M{"schedule_id": itemID}); err != nil {
		return fmt.Errorf("clear %s: %w", collScheduleTechnicians, err)
	}
	if len(techs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(techs))
	for _, t := range techs {
		docs = append(docs, scheduleTechnicianDoc{ScheduleID: itemID, TechnicianID: t})
	}
	if _, err := links.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %s: %w", collScheduleTechnicians, err)
	}
	return nil
}

// Load replaces one collection of dst with the stored records.
func (r *Repository) Load(ctx context.Context, col hangar.Collection, dst *hangar.State) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("mongo repository is nil")
	}
	coll := r.db.Collection(string(col))
	var err error
	switch col {
	case hangar.CollectionVehicles:
		dst.Vehicles, err = findAll[models.Vehicle](ctx, coll)
	case hangar.CollectionTechnicians:
		dst.Technicians, err = findAll[models.Technician](ctx, coll)
	case hangar.CollectionContractors:
		dst.Contractors, err = findAll[models.Contractor](ctx, coll)
	case hangar.CollectionJobTypes:
		dst.JobTypes, err = findAll[models.JobType](ctx, coll)
	case hangar.CollectionNotes:
		dst.Notes, err = findAll[models.ShiftNote](ctx, coll)
	case hangar.CollectionJobs:
		dst.Jobs, err = r.loadJobs(ctx, coll)
	case hangar.CollectionSchedule:
		dst.Schedule, err = r.loadSchedule(ctx, coll)
	default:
		return fmt.Errorf("unknown collection %q", col)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", col, err)
	}
	log.WithField("collection", col).Debug("Loaded collection from mongo")
	return nil
}

func (r *Repository) loadJobs(ctx context.Context, coll *mongo.Collection) ([]models.Job, error) {
	jobs, err := findAll[models.Job](ctx, coll)
	if err != nil {
		return nil, err
	}
	links, err := findAll[jobTechnicianDoc](ctx, r.db.Collection(collJobTechnicians))
	if err != nil {
		return nil, err
	}
	parts, err := findAll[partDoc](ctx, r.db.Collection(collJobParts), bson.E{Key: "job_id", Value: 1}, bson.E{Key: "position", Value: 1})
	if err != nil {
		return nil, err
	}

	techsByJob := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, l := range links {
		techsByJob[l.JobID] = append(techsByJob[l.JobID], l.TechnicianID)
	}
	partsByJob := make(map[primitive.ObjectID][]models.Part)
	for _, d := range parts {
		p, err := d.part()
		if err != nil {
			return nil, err
		}
		partsByJob[d.JobID] = append(partsByJob[d.JobID], p)
	}
	for i := range jobs {
		if jobs[i].Assignment.Mode == models.AssignInternal {
			jobs[i].Assignment.TechnicianIDs = techsByJob[jobs[i].ID]
		}
		jobs[i].Parts = partsByJob[jobs[i].ID]
	}
	return jobs, nil
}

func (r *Repository) loadSchedule(ctx context.Context, coll *mongo.Collection) ([]models.ScheduleItem, error) {
	items, err := findAll[models.ScheduleItem](ctx, coll)
	if err != nil {
		return nil, err
	}
	links, err := findAll[scheduleTechnicianDoc](ctx, r.db.Collection(collScheduleTechnicians))
	if err != nil {
		return nil, err
	}
	techsByItem := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, l := range links {
		techsByItem[l.ScheduleID] = append(techsByItem[l.ScheduleID], l.TechnicianID)
	}
	for i := range items {
		items[i].TechnicianIDs = techsByItem[items[i].ID]
		if items[i].TechnicianIDs == nil {
			items[i].TechnicianIDs = []primitive.ObjectID{}
		}
	}
	return items, nil
}

// findAll decodes every document of coll, oldest first unless a sort is given.
func findAll[T any](ctx context.Context, coll *mongo.Collection, sort ...bson.E) ([]T, error) {
	if len(sort) == 0 {
		sort = []bson.E{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	}
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D(sort)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
