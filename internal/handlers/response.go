package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// readJSON decodes the request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, dst)
}

// pathID parses the {id} path segment as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &hangar.ValidationError{Fields: map[string]string{"id": "must be a valid id"}})
		return primitive.NilObjectID, false
	}
	return id, true
}

// writeError maps store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	var verr *hangar.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, hangar.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, hangar.ErrInvalidTransition),
		errors.Is(err, hangar.ErrBayOccupied),
		errors.Is(err, hangar.ErrAlreadyPromoted),
		errors.Is(err, hangar.ErrJobClosed),
		errors.Is(err, hangar.ErrScheduleLinked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, hangar.ErrPersistence):
		http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
	default:
		log.WithError(err).Error("Unhandled error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
