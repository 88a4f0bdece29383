package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mafundi/mafundi-cli/internal/mocks"
	"github.com/mafundi/mafundi-cli/internal/models"
	"github.com/mafundi/mafundi-cli/internal/services"
	"github.com/mafundi/mafundi-cli/internal/session"
)

func newAuthService(backend *mocks.MockBackend) (*services.AuthService, *mocks.MockSessionStore) {
	store := new(mocks.MockSessionStore)
	store.On("Save", mock.Anything).Return(nil)
	store.On("Delete").Return(nil)
	manager := session.NewManager(store, zerolog.Nop())
	return services.NewAuthService(backend, manager, zerolog.Nop()), store
}

func TestAuthService_Login(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("Login", mock.Anything, models.Credentials{Email: "wanjiku@example.com", Password: "secret"}).
		Return(models.AuthResponse{User: fundiUser, Token: "1|abc"}, nil)

	auth, store := newAuthService(backend)
	s, err := auth.Login(context.Background(), " wanjiku@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "1|abc", s.Token)
	assert.Equal(t, fundiUser, s.User)
	store.AssertCalled(t, "Save", s)

	current, err := auth.Current()
	require.NoError(t, err)
	assert.Same(t, s, current)

	require.NoError(t, auth.Logout())
	assert.False(t, s.Valid())
}

func TestAuthService_LoginValidation(t *testing.T) {
	backend := new(mocks.MockBackend)
	auth, _ := newAuthService(backend)

	_, err := auth.Login(context.Background(), "", "secret")
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
	backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestAuthService_LoginRejected(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("Login", mock.Anything, mock.Anything).Return(models.AuthResponse{}, errors.New("Invalid credentials"))

	auth, store := newAuthService(backend)
	_, err := auth.Login(context.Background(), "x@example.com", "bad")
	assert.EqualError(t, err, "Invalid credentials")
	store.AssertNotCalled(t, "Save", mock.Anything)
}

func TestAuthService_SignupLogsIn(t *testing.T) {
	reg := models.Registration{Name: "Otieno", Email: "otieno@example.com", Password: "pw", PasswordConfirmation: "pw", Role: "foreman"}

	backend := new(mocks.MockBackend)
	backend.On("Register", mock.Anything, reg).Return(nil)
	backend.On("Login", mock.Anything, models.Credentials{Email: "otieno@example.com", Password: "pw"}).
		Return(models.AuthResponse{User: foremanUser, Token: "2|xyz"}, nil)

	auth, _ := newAuthService(backend)
	s, err := auth.Signup(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, s.User.IsForeman())
	backend.AssertExpectations(t)
}

func TestAuthService_SignupFailureSkipsLogin(t *testing.T) {
	backend := new(mocks.MockBackend)
	backend.On("Register", mock.Anything, mock.Anything).Return(errors.New("The email has already been taken."))

	auth, _ := newAuthService(backend)
	_, err := auth.Signup(context.Background(), models.Registration{Email: "o@example.com", Password: "pw", PasswordConfirmation: "pw", Role: "fundi"})
	assert.Error(t, err)
	backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}
