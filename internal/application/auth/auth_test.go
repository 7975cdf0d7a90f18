package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/jwt"
)

type fakeCustomers struct {
	byID map[uint]*customer.Customer
}

func (f *fakeCustomers) Authenticate(_ context.Context, email, password string) (*customer.Customer, error) {
	for _, c := range f.byID {
		if c.Email == email && password == "Secret123" {
			return c, nil
		}
	}
	return nil, apperrors.ErrInvalidPassword
}

func (f *fakeCustomers) FindByID(_ context.Context, id uint) (*customer.Customer, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, customer.ErrCustomerNotFound
}

type fakeSessions struct {
	saved       map[uint]map[string]interface{}
	blacklisted map[string]time.Duration
	saveErr     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[uint]map[string]interface{}{}, blacklisted: map[string]time.Duration{}}
}

func (f *fakeSessions) SaveSession(_ context.Context, id uint, data map[string]interface{}, _ time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[id] = data
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id uint) error {
	delete(f.saved, id)
	return nil
}

func (f *fakeSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	f.blacklisted[token] = ttl
	return nil
}

func newAna() *customer.Customer {
	c := customer.NewCustomer("Ana", "ana@example.com", "hash")
	c.ID = 1
	return c
}

func TestActor(t *testing.T) {
	buyer := Actor{CustomerID: 1, Roles: []string{"CUSTOMER"}}
	admin := Actor{CustomerID: 9, Roles: []string{"CUSTOMER", "ADMIN"}}

	assert.True(t, buyer.CanAccess(1))
	assert.False(t, buyer.CanAccess(2))
	assert.False(t, buyer.IsAdmin())
	assert.True(t, admin.CanAccess(2))
}

func TestLoginAndLogout(t *testing.T) {
	customers := &fakeCustomers{byID: map[uint]*customer.Customer{1: newAna()}}
	sessions := newFakeSessions()
	manager := jwt.NewManager("secret", time.Hour, 24*time.Hour)

	login := NewLoginUseCase(customers, manager, sessions, 24*time.Hour, zap.NewNop())
	resp, err := login.Execute(context.Background(), LoginRequest{Email: "ana@example.com", Password: "Secret123", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMER"}, resp.Customer.Roles)
	assert.Equal(t, "10.0.0.1", sessions.saved[1]["ip"])

	claims, err := manager.ParseToken(resp.AccessToken)
	require.NoError(t, err)

	logout := NewLogoutUseCase(manager, sessions)
	require.NoError(t, logout.Execute(context.Background(), claims, resp.AccessToken))
	assert.NotContains(t, sessions.saved, uint(1))
	assert.Greater(t, sessions.blacklisted[resp.AccessToken], 59*time.Minute)
}

func TestLogin_WrongPassword(t *testing.T) {
	customers := &fakeCustomers{byID: map[uint]*customer.Customer{1: newAna()}}
	login := NewLoginUseCase(customers, jwt.NewManager("s", time.Hour, time.Hour), newFakeSessions(), time.Hour, zap.NewNop())

	_, err := login.Execute(context.Background(), LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
}

func TestLogin_SessionFailureIsNotFatal(t *testing.T) {
	customers := &fakeCustomers{byID: map[uint]*customer.Customer{1: newAna()}}
	sessions := newFakeSessions()
	sessions.saveErr = errors.New("redis down")
	login := NewLoginUseCase(customers, jwt.NewManager("s", time.Hour, time.Hour), sessions, time.Hour, zap.NewNop())

	resp, err := login.Execute(context.Background(), LoginRequest{Email: "ana@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefreshToken(t *testing.T) {
	ana := newAna()
	customers := &fakeCustomers{byID: map[uint]*customer.Customer{1: ana}}
	manager := jwt.NewManager("secret", time.Hour, 24*time.Hour)
	pair, err := manager.GenerateToken(1, ana.Email, ana.RoleNames())
	require.NoError(t, err)

	uc := NewRefreshTokenUseCase(customers, manager)
	token, err := uc.Execute(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	ana.Deactivate()
	_, err = uc.Execute(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, customer.ErrCustomerInactive)
}
