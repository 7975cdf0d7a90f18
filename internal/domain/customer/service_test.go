package customer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// memRepo 内存版客户仓储
type memRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]Customer
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uint]Customer)}
}

func (r *memRepo) Create(_ context.Context, c *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == c.Email {
			return ErrEmailDuplicate
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &row, nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == email {
			c := row
			return &c, nil
		}
	}
	return nil, ErrCustomerNotFound
}

func (r *memRepo) ExistsByID(ctx context.Context, id uint) (bool, error) {
	_, err := r.FindByID(ctx, id)
	return err == nil, nil
}

func (r *memRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memRepo) Update(_ context.Context, c *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.ID]; !ok {
		return ErrCustomerNotFound
	}
	r.rows[c.ID] = *c
	return nil
}

func (r *memRepo) List(_ context.Context, params ListParams) ([]*Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Customer
	for id := uint(1); id <= r.nextID; id++ {
		row, ok := r.rows[id]
		if !ok || (params.Name != "" && !strings.Contains(row.Name, params.Name)) {
			continue
		}
		c := row
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

type retirerFunc func(ctx context.Context, customerID uint) error

func (f retirerFunc) DeleteByCustomer(ctx context.Context, customerID uint) error {
	return f(ctx, customerID)
}

func newTestService(repo Repository, books BookRetirer) Service {
	return &service{repo: repo, books: books, cost: bcrypt.MinCost}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), nil)

	c, err := svc.Create(ctx, "Machado", "machado@example.com", "capitu1899")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, StatusActive, c.Status)
	assert.True(t, c.HasRole(RoleCustomer))
	assert.NotEqual(t, "capitu1899", c.Password, "密码必须以哈希形式保存")

	_, err = svc.Create(ctx, "Outro", "machado@example.com", "capitu1899")
	assert.ErrorIs(t, err, ErrEmailDuplicate)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), nil)

	tests := []struct {
		name, customer, email, password string
		want                            error
	}{
		{"姓名过短", "M", "a@b.com", "abc12345", ErrInvalidName},
		{"邮箱格式错误", "Machado", "not-an-email", "abc12345", ErrInvalidEmail},
		{"密码过短", "Machado", "a@b.com", "a1", ErrWeakPassword},
		{"密码缺少数字", "Machado", "a@b.com", "abcdefghij", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.customer, tt.email, tt.password)
			// 参数错误共用同一错误码,按错误值比较以区分具体原因
			assert.Equal(t, tt.want, err)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), nil)

	c, err := svc.Create(ctx, "Machado", "machado@example.com", "capitu1899")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, "Joaquim Maria", "")
	require.NoError(t, err)
	assert.Equal(t, "Joaquim Maria", updated.Name)
	assert.Equal(t, "machado@example.com", updated.Email)

	_, err = svc.Update(ctx, 999, "Someone", "")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()

	var retired []uint
	svc := newTestService(repo, retirerFunc(func(_ context.Context, id uint) error {
		retired = append(retired, id)
		return nil
	}))

	c, err := svc.Create(ctx, "Machado", "machado@example.com", "capitu1899")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.Equal(t, []uint{c.ID}, retired)

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Status)

	t.Run("图书下架失败时不停用客户", func(t *testing.T) {
		boom := errors.New("boom")
		failing := newTestService(repo, retirerFunc(func(context.Context, uint) error { return boom }))

		other, err := failing.Create(ctx, "Alencar", "alencar@example.com", "iracema1865")
		require.NoError(t, err)

		assert.ErrorIs(t, failing.Delete(ctx, other.ID), boom)
		got, _ := repo.FindByID(ctx, other.ID)
		assert.Equal(t, StatusActive, got.Status)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := newTestService(repo, retirerFunc(func(context.Context, uint) error { return nil }))

	c, err := svc.Create(ctx, "Machado", "machado@example.com", "capitu1899")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "machado@example.com", "capitu1899")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Authenticate(ctx, "machado@example.com", "wrong1234")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "capitu1899")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Authenticate(ctx, "machado@example.com", "capitu1899")
	assert.ErrorIs(t, err, ErrCustomerInactive)
}

func TestService_EmailAvailable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemRepo(), nil)

	ok, err := svc.EmailAvailable(ctx, "machado@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, "Machado", "machado@example.com", "capitu1899")
	require.NoError(t, err)

	ok, err = svc.EmailAvailable(ctx, "machado@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
