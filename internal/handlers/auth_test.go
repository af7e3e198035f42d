package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leogoca00/hangar-sprc/internal/auth"
	"github.com/leogoca00/hangar-sprc/internal/db"
	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handlers-test-secret-0123456789ab"

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ db.UserCollection = (*MockUserCollection)(nil)

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func withUser(req *http.Request, id primitive.ObjectID, role models.Role) *http.Request {
	claims := &models.Claims{UserID: id.Hex(), Username: "marta", Role: role}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

func TestAuthHandler_Login(t *testing.T) {
	authService := auth.NewService(testSecret, time.Hour)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	newUser := func(active bool) *models.User {
		return &models.User{
			ID:           primitive.NewObjectID(),
			Username:     "marta",
			Email:        "marta@sprc.example",
			PasswordHash: passwordHash,
			Role:         models.RolePlanner,
			FullName:     "Marta Rojas",
			IsActive:     active,
		}
	}

	t.Run("successful login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		user := newUser(true)

		users.On("FindUserByUsername", mock.Anything, "marta").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "marta", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, "Marta Rojas", response.User.FullName)
		assert.NotContains(t, w.Body.String(), passwordHash)

		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, models.RolePlanner, claims.Role)
		users.AssertExpectations(t)
	})

	t.Run("last login failure does not block", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		user := newUser(true)

		users.On("FindUserByUsername", mock.Anything, "marta").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(assert.AnError)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "marta", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, db.ErrUserNotFound)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "ghost", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "marta").Return(newUser(true), nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "marta", Password: "wrongpassword"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("inactive user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "marta").Return(newUser(false), nil)

		req := httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "marta", Password: "password123"}))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields and bad method", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/api/auth/login", jsonBody(t, models.LoginRequest{Username: "marta"})))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("GET", "/api/auth/login", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	authService := auth.NewService(testSecret, time.Hour)

	registration := func(role models.Role) models.RegisterRequest {
		return models.RegisterRequest{
			Username: "newtech",
			Email:    "newtech@sprc.example",
			Password: "password123",
			FullName: " Nico Vera ",
			Role:     role,
		}
	}

	t.Run("first account may be a supervisor", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)

		users.On("ListUsers", mock.Anything).Return([]models.User{}, nil)
		users.On("FindUserByUsername", mock.Anything, "newtech").Return(nil, db.ErrUserNotFound)
		users.On("FindUserByEmail", mock.Anything, "newtech@sprc.example").Return(nil, db.ErrUserNotFound)
		users.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleSupervisor && u.FullName == "Nico Vera" && u.IsActive && u.PasswordHash != "password123"
		})).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registration(models.RoleSupervisor)))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "newtech", response.User.Username)
		users.AssertExpectations(t)
	})

	t.Run("later public registrations need a role manager", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("ListUsers", mock.Anything).Return([]models.User{{Username: "boss"}}, nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registration(models.RoleTechnician)))
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("supervisor token may assign roles", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		boss := &models.User{ID: primitive.NewObjectID(), Username: "boss", Role: models.RoleSupervisor}
		token, err := authService.GenerateToken(boss)
		require.NoError(t, err)

		users.On("ListUsers", mock.Anything).Return([]models.User{*boss}, nil)
		users.On("FindUserByUsername", mock.Anything, "newtech").Return(nil, db.ErrUserNotFound)
		users.On("FindUserByEmail", mock.Anything, "newtech@sprc.example").Return(nil, db.ErrUserNotFound)
		users.On("InsertUser", mock.Anything, mock.AnythingOfType("models.User")).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registration(models.RoleTechnician)))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("empty role registers a viewer", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "newtech").Return(nil, db.ErrUserNotFound)
		users.On("FindUserByEmail", mock.Anything, "newtech@sprc.example").Return(nil, db.ErrUserNotFound)
		users.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleViewer
		})).Return(nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registration("")))
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		users.AssertNotCalled(t, "ListUsers", mock.Anything)
	})

	t.Run("username already exists", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByUsername", mock.Anything, "newtech").Return(&models.User{Username: "newtech"}, nil)

		req := httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, registration(models.RoleViewer)))
		w := httptest.NewRecorder()
		handler.Register(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid input", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))

		bad := []models.RegisterRequest{
			{Username: "ab", Email: "x@y.z", Password: "password123", Role: models.RoleViewer},
			{Username: "newtech", Email: "nope", Password: "password123", Role: models.RoleViewer},
			{Username: "newtech", Email: "x@y.z", Password: "short", Role: models.RoleViewer},
			{Username: "newtech", Email: "x@y.z", Password: "password123", Role: "admin"},
		}
		for _, reg := range bad {
			w := httptest.NewRecorder()
			handler.Register(w, httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, reg)))
			assert.Equal(t, http.StatusBadRequest, w.Code, "%+v", reg)
		}
	})

	t.Run("every bad field is reported", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		w := httptest.NewRecorder()
		reg := models.RegisterRequest{Username: "ab", Email: "nope", Password: "short", Role: "admin"}
		handler.Register(w, httptest.NewRequest("POST", "/api/auth/register", jsonBody(t, reg)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Errors, 4)
		assert.Contains(t, body.Errors, "role")
	})
}

func TestAuthHandler_Profile(t *testing.T) {
	authService := auth.NewService(testSecret, time.Hour)
	id := primitive.NewObjectID()

	t.Run("get profile", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, Username: "marta", FullName: "Marta Rojas"}, nil)

		req := withUser(httptest.NewRequest("GET", "/api/auth/profile", nil), id, models.RolePlanner)
		w := httptest.NewRecorder()
		handler.GetProfile(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var user models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "Marta Rojas", user.FullName)
	})

	t.Run("get profile without claims", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		w := httptest.NewRecorder()
		handler.GetProfile(w, httptest.NewRequest("GET", "/api/auth/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("profile user gone", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(nil, db.ErrUserNotFound)

		w := httptest.NewRecorder()
		handler.GetProfile(w, withUser(httptest.NewRequest("GET", "/api/auth/profile", nil), id, models.RolePlanner))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update profile", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, Username: "marta", Email: "old@sprc.example"}, nil)
		users.On("FindUserByEmail", mock.Anything, "new@sprc.example").Return(nil, db.ErrUserNotFound)
		users.On("UpdateUser", mock.Anything, id.Hex(), mock.MatchedBy(func(u models.User) bool {
			return u.FullName == "Marta R." && u.Email == "new@sprc.example"
		})).Return(nil)

		body := jsonBody(t, map[string]string{"full_name": "Marta R.", "email": "new@sprc.example"})
		w := httptest.NewRecorder()
		handler.UpdateProfile(w, withUser(httptest.NewRequest("PUT", "/api/auth/profile", body), id, models.RolePlanner))
		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("update profile email taken", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, Username: "marta"}, nil)
		users.On("FindUserByEmail", mock.Anything, "taken@sprc.example").Return(&models.User{ID: primitive.NewObjectID()}, nil)

		body := jsonBody(t, map[string]string{"email": "taken@sprc.example"})
		w := httptest.NewRecorder()
		handler.UpdateProfile(w, withUser(httptest.NewRequest("PUT", "/api/auth/profile", body), id, models.RolePlanner))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	authService := auth.NewService(testSecret, time.Hour)
	id := primitive.NewObjectID()
	hash, err := authService.HashPassword("oldpassword")
	require.NoError(t, err)

	t.Run("successful password change", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, PasswordHash: hash}, nil)
		users.On("UpdateUser", mock.Anything, id.Hex(), mock.MatchedBy(func(u models.User) bool {
			return authService.CheckPassword("newpassword123", u.PasswordHash)
		})).Return(nil)

		body := jsonBody(t, map[string]string{"current_password": "oldpassword", "new_password": "newpassword123"})
		w := httptest.NewRecorder()
		handler.ChangePassword(w, withUser(httptest.NewRequest("POST", "/api/auth/password", body), id, models.RoleTechnician))
		assert.Equal(t, http.StatusOK, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("incorrect current password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("FindUserByID", mock.Anything, id.Hex()).Return(&models.User{ID: id, PasswordHash: hash}, nil)

		body := jsonBody(t, map[string]string{"current_password": "wrong-password", "new_password": "newpassword123"})
		w := httptest.NewRecorder()
		handler.ChangePassword(w, withUser(httptest.NewRequest("POST", "/api/auth/password", body), id, models.RoleTechnician))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Users(t *testing.T) {
	authService := auth.NewService(testSecret, time.Hour)
	self := primitive.NewObjectID()
	other := primitive.NewObjectID()

	users := new(MockUserCollection)
	handler := NewAuthHandler(authService, users)
	users.On("ListUsers", mock.Anything).Return([]models.User{{ID: self, Username: "boss"}, {ID: other, Username: "tech"}}, nil)
	users.On("DeleteUser", mock.Anything, other.Hex()).Return(nil).Once()
	users.On("DeleteUser", mock.Anything, other.Hex()).Return(db.ErrUserNotFound)

	w := httptest.NewRecorder()
	handler.ListUsers(w, withUser(httptest.NewRequest("GET", "/api/users", nil), self, models.RoleSupervisor))
	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	del := func(id primitive.ObjectID) int {
		req := httptest.NewRequest("DELETE", "/api/users/"+id.Hex(), nil)
		req.SetPathValue("id", id.Hex())
		w := httptest.NewRecorder()
		handler.DeleteUser(w, withUser(req, self, models.RoleSupervisor))
		return w.Code
	}
	assert.Equal(t, http.StatusConflict, del(self))
	assert.Equal(t, http.StatusNoContent, del(other))
	assert.Equal(t, http.StatusNotFound, del(other))
}
