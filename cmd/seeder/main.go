package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/models"
	log "github.com/sirupsen/logrus"
)

// defaultJobTypes is the starter preventive and corrective catalog.
var defaultJobTypes = []models.NewJobTypeForm{
	{Name: "PM 250h", Category: models.CategoryPreventive, Description: "Oil, filters and greasing", DefaultHours: hours(3)},
	{Name: "PM 500h", Category: models.CategoryPreventive, Description: "PM 250h plus hydraulic filters", DefaultHours: hours(5)},
	{Name: "PM 1000h", Category: models.CategoryPreventive, Description: "Full service and fluid change", DefaultHours: hours(8)},
	{Name: "Tyre change", Category: models.CategoryCorrective, DefaultHours: hours(2)},
	{Name: "Brake adjustment", Category: models.CategoryCorrective, DefaultHours: hours(2)},
}

func hours(h float64) *float64 { return &h }

// Seeder registers fleet and catalog records through the hangar API.
type Seeder struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewSeeder(baseURL string) *Seeder {
	return &Seeder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends a JSON request and decodes the reply into out when it has the
// wanted status.
func (s *Seeder) do(method, path string, in, out interface{}, want int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

// Login exchanges staff credentials for a token.
func (s *Seeder) Login(username, password string) error {
	var resp models.LoginResponse
	if err := s.do(http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password}, &resp, http.StatusOK); err != nil {
		return err
	}
	s.token = resp.Token
	log.WithFields(log.Fields{"username": username, "role": resp.User.Role}).Info("Logged in")
	return nil
}

// SeedVehicles registers every fleet vehicle whose code is not known yet.
func (s *Seeder) SeedVehicles(fleet []models.Vehicle) (int, error) {
	var existing []models.Vehicle
	if err := s.do(http.MethodGet, "/vehicles", nil, &existing, http.StatusOK); err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, v := range existing {
		known[v.Code] = true
	}

	created := 0
	for _, v := range fleet {
		if known[v.Code] {
			continue
		}
		form := models.NewVehicleForm{Code: v.Code, Class: v.Class, Model: v.Model, Meter: v.Meter}
		var got models.Vehicle
		if err := s.do(http.MethodPost, "/vehicles", form, &got, http.StatusCreated); err != nil {
			return created, err
		}
		created++
		log.WithFields(log.Fields{"vehicle_id": got.ID.Hex(), "code": got.Code}).Debug("Created vehicle")
	}
	return created, nil
}

// SeedJobTypes adds the catalog entries whose names are not taken.
func (s *Seeder) SeedJobTypes(types []models.NewJobTypeForm) (int, error) {
	var existing []models.JobType
	if err := s.do(http.MethodGet, "/job-types", nil, &existing, http.StatusOK); err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, jt := range existing {
		known[strings.ToLower(jt.Name)] = true
	}

	created := 0
	for _, form := range types {
		if known[strings.ToLower(form.Name)] {
			continue
		}
		if err := s.do(http.MethodPost, "/job-types", form, nil, http.StatusCreated); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	withCatalog := true
	if v := os.Getenv("SEED_JOB_TYPES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			withCatalog = b
		}
	}

	s := NewSeeder(apiURL)
	s.token = os.Getenv("SEED_AUTH_TOKEN")
	if s.token == "" {
		if err := s.Login(os.Getenv("SEED_USERNAME"), os.Getenv("SEED_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Login failed; set SEED_AUTH_TOKEN or SEED_USERNAME and SEED_PASSWORD")
		}
	}

	log.WithField("api_url", apiURL).Info("Seeding hangar fleet")
	n, err := s.SeedVehicles(hangar.DefaultFleet(time.Now()))
	if err != nil {
		log.WithError(err).WithField("created_vehicles", n).Fatal("Fleet seeding failed")
	}
	log.WithField("created_vehicles", n).Info("Vehicle creation completed")

	if withCatalog {
		n, err := s.SeedJobTypes(defaultJobTypes)
		if err != nil {
			log.WithError(err).WithField("created_job_types", n).Fatal("Catalog seeding failed")
		}
		log.WithField("created_job_types", n).Info("Catalog seeding completed")
	}
}
