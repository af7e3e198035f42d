package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/auth"
	"github.com/leogoca00/hangar-sprc/internal/db"
	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler serves staff login and account management.
type AuthHandler struct {
	authService *auth.Service
	users       db.UserCollection
	log         *logrus.Entry
}

func NewAuthHandler(authService *auth.Service, users db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		log:         logrus.WithField("component", "auth"),
	}
}

// invalid writes a 400 with one message per offending field.
func invalid(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, &hangar.ValidationError{Fields: fields})
}

// issue answers with a fresh token pair for user.
func (h *AuthHandler) issue(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.log.WithError(err).Error("Failed to sign token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	refresh, err := h.authService.GenerateRefreshToken()
	if err != nil {
		h.log.WithError(err).Error("Failed to generate refresh token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, models.LoginResponse{Token: token, RefreshToken: refresh, User: *user})
}

// currentUser loads the account behind the request's token.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.Claims, *models.User, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, nil, false
	}
	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return nil, nil, false
	}
	return claims, user, true
}

// Login exchanges credentials for a token. Unknown users and wrong
// passwords get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}
	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		h.log.WithField("username", user.Username).Warn("Rejected login")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		h.log.WithError(err).WithField("username", user.Username).Warn("Failed to update last login")
	}
	h.log.WithFields(logrus.Fields{"username": user.Username, "role": user.Role}).Info("Staff login")
	h.issue(w, http.StatusOK, user)
}

// Register creates a staff account. Roles above viewer need either an
// empty user base or a caller allowed to manage users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req models.RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}

	fields := map[string]string{}
	if err := h.authService.ValidateUsername(req.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	if !models.IsValidRole(req.Role) {
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		invalid(w, fields)
		return
	}
	if req.Role != models.RoleViewer && !h.mayAssignRoles(r) {
		http.Error(w, "Insufficient permissions to assign role", http.StatusForbidden)
		return
	}

	if _, err := h.users.FindUserByUsername(r.Context(), req.Username); err == nil {
		http.Error(w, "Username already exists", http.StatusConflict)
		return
	}
	if _, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.InsertUser(r.Context(), user); err != nil {
		h.log.WithError(err).WithField("username", user.Username).Error("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	h.log.WithFields(logrus.Fields{"username": user.Username, "role": user.Role}).Info("Staff account created")
	h.issue(w, http.StatusCreated, &user)
}

// mayAssignRoles is true for the first account and for callers whose
// bearer token allows managing users.
func (h *AuthHandler) mayAssignRoles(r *http.Request) bool {
	if existing, err := h.users.ListUsers(r.Context()); err == nil && len(existing) == 0 {
		return true
	}
	token, err := h.authService.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return false
	}
	claims, err := h.authService.ValidateToken(token)
	return err == nil && models.RoleAllows(claims.Role, models.ActionManageUsers)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if _, user, ok := h.currentUser(w, r); ok {
		writeJSON(w, http.StatusOK, user)
	}
}

// UpdateProfile changes the caller's full name and email.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = name
	}
	if req.Email != "" {
		if err := h.authService.ValidateEmail(req.Email); err != nil {
			invalid(w, map[string]string{"email": err.Error()})
			return
		}
		if other, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil && other.ID.Hex() != claims.UserID {
			http.Error(w, "Email already exists", http.StatusConflict)
			return
		}
		user.Email = req.Email
	}

	if err := h.users.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		h.log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to update profile")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

// ChangePassword requires the current password before storing a new hash.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Current == "" {
		invalid(w, map[string]string{"current_password": "is required"})
		return
	}
	if err := h.authService.ValidatePassword(req.New); err != nil {
		invalid(w, map[string]string{"new_password": err.Error()})
		return
	}
	if !h.authService.CheckPassword(req.Current, user.PasswordHash) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := h.authService.HashPassword(req.New)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = hash
	if err := h.users.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		h.log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to store password")
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser removes a staff account other than the caller's own.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok && claims.UserID == id {
		http.Error(w, "Cannot delete your own account", http.StatusConflict)
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.log.WithError(err).Error("Failed to delete user")
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	h.log.WithField("user_id", id).Info("Staff account deleted")
	w.WriteHeader(http.StatusNoContent)
}
