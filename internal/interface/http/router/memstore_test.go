package router

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
)

// 内存仓储,订阅者在独立goroutine中写入,全部加锁

type memCustomers struct {
	mu   sync.Mutex
	rows []*customer.Customer
}

func (s *memCustomers) Create(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == c.Email {
			return customer.ErrEmailDuplicate
		}
	}
	c.ID = uint(len(s.rows) + 1)
	c.CreatedAt = time.Now()
	cp := *c
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *memCustomers) find(match func(*customer.Customer) bool) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, customer.ErrCustomerNotFound
}

func (s *memCustomers) FindByID(_ context.Context, id uint) (*customer.Customer, error) {
	return s.find(func(c *customer.Customer) bool { return c.ID == id })
}

func (s *memCustomers) FindByEmail(_ context.Context, email string) (*customer.Customer, error) {
	return s.find(func(c *customer.Customer) bool { return c.Email == email })
}

func (s *memCustomers) ExistsByID(ctx context.Context, id uint) (bool, error) {
	_, err := s.FindByID(ctx, id)
	return err == nil, nil
}

func (s *memCustomers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *memCustomers) Update(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == c.ID {
			cp := *c
			s.rows[i] = &cp
			return nil
		}
	}
	return customer.ErrCustomerNotFound
}

func (s *memCustomers) List(_ context.Context, params customer.ListParams) ([]*customer.Customer, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*customer.Customer
	for _, row := range s.rows {
		if params.Name == "" || strings.Contains(row.Name, params.Name) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return page(out, params.Offset(), params.PageSize), int64(len(out)), nil
}

type memBooks struct {
	mu   sync.Mutex
	rows []*book.Book
}

func (s *memBooks) Create(_ context.Context, b *book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = uint(len(s.rows) + 1)
	b.CreatedAt = time.Now()
	cp := *b
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *memBooks) FindByID(_ context.Context, id uint) (*book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || int(id) > len(s.rows) {
		return nil, book.ErrBookNotFound
	}
	cp := *s.rows[id-1]
	return &cp, nil
}

func (s *memBooks) FindAllByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	var out []*book.Book
	for _, id := range ids {
		if b, err := s.FindByID(ctx, id); err == nil {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memBooks) List(_ context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*book.Book
	for _, row := range s.rows {
		if params.Status == "" || row.Status == params.Status {
			cp := *row
			out = append(out, &cp)
		}
	}
	return page(out, params.Offset(), params.PageSize), int64(len(out)), nil
}

func (s *memBooks) Update(_ context.Context, b *book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 || int(b.ID) > len(s.rows) {
		return book.ErrBookNotFound
	}
	cp := *b
	s.rows[b.ID-1] = &cp
	return nil
}

func (s *memBooks) MarkSold(_ context.Context, ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id > 0 && int(id) <= len(s.rows) {
			s.rows[id-1].Status = book.StatusSold
		}
	}
	return nil
}

func (s *memBooks) UpdateStatusByCustomer(_ context.Context, customerID uint, status book.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.CustomerID == customerID {
			row.Status = status
		}
	}
	return nil
}

type memPurchases struct {
	mu   sync.Mutex
	rows []*purchase.Purchase
}

func (s *memPurchases) Save(_ context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, p.Clone())
	return nil
}

func (s *memPurchases) Update(_ context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 || int(p.ID) > len(s.rows) {
		return purchase.ErrPurchaseNotFound
	}
	s.rows[p.ID-1] = p.Clone()
	return nil
}

func (s *memPurchases) AssignNFE(_ context.Context, id uint, nfe string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || int(id) > len(s.rows) {
		return false, purchase.ErrPurchaseNotFound
	}
	if s.rows[id-1].NFE != "" {
		return false, nil
	}
	s.rows[id-1].NFE = nfe
	return true, nil
}

func (s *memPurchases) FindByID(_ context.Context, id uint) (*purchase.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || int(id) > len(s.rows) {
		return nil, purchase.ErrPurchaseNotFound
	}
	return s.rows[id-1].Clone(), nil
}

func (s *memPurchases) ListByCustomer(_ context.Context, customerID uint, params purchase.ListParams) ([]*purchase.Purchase, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*purchase.Purchase
	for _, row := range s.rows {
		if row.CustomerID == customerID {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, params.Offset(), params.PageSize), int64(len(out)), nil
}

func page[T any](items []T, offset, size int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// passthroughTx 直接执行fn
type passthroughTx struct{}

func (passthroughTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memSessions 会话与黑名单
type memSessions struct {
	mu        sync.Mutex
	sessions  map[uint]map[string]interface{}
	blacklist map[string]bool
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uint]map[string]interface{}{}, blacklist: map[string]bool{}}
}

func (s *memSessions) SaveSession(_ context.Context, customerID uint, data map[string]interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[customerID] = data
	return nil
}

func (s *memSessions) DeleteSession(_ context.Context, customerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, customerID)
	return nil
}

func (s *memSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		s.blacklist[token] = true
	}
	return nil
}

func (s *memSessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[token], nil
}
