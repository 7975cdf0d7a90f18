package purchase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
)

// =========================================
// 测试替身
// =========================================

// catalog 内存版book.Reader
// FindAllByIDs按主键升序返回,与数据库 WHERE id IN (...) 的结果一致
type catalog struct {
	rows map[uint]*book.Book
}

func newCatalog(books ...*book.Book) *catalog {
	c := &catalog{rows: make(map[uint]*book.Book)}
	for _, b := range books {
		c.rows[b.ID] = b
	}
	return c
}

func (c *catalog) FindByID(_ context.Context, id uint) (*book.Book, error) {
	b, ok := c.rows[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (c *catalog) FindAllByIDs(_ context.Context, ids []uint) ([]*book.Book, error) {
	seen := make(map[uint]bool)
	var found []*book.Book
	for _, id := range ids {
		if b, ok := c.rows[id]; ok && !seen[id] {
			seen[id] = true
			cp := *b
			found = append(found, &cp)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (c *catalog) List(context.Context, book.ListParams) ([]*book.Book, int64, error) {
	return nil, 0, nil
}

func (c *catalog) statuses() map[uint]book.Status {
	out := make(map[uint]book.Status, len(c.rows))
	for id, b := range c.rows {
		out[id] = b.Status
	}
	return out
}

type ledger struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*Purchase
	saves  int
}

func newLedger() *ledger {
	return &ledger{rows: make(map[uint]*Purchase)}
}

func (l *ledger) Save(_ context.Context, p *Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	p.ID = l.nextID
	l.rows[p.ID] = p.Clone()
	l.saves++
	return nil
}

func (l *ledger) Update(_ context.Context, p *Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[p.ID]; !ok {
		return ErrPurchaseNotFound
	}
	l.rows[p.ID] = p.Clone()
	return nil
}

func (l *ledger) AssignNFE(_ context.Context, id uint, nfe string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[id]
	if !ok {
		return false, ErrPurchaseNotFound
	}
	if p.NFE != "" {
		return false, nil
	}
	p.NFE = nfe
	return true, nil
}

func (l *ledger) FindByID(_ context.Context, id uint) (*Purchase, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.rows[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	return p.Clone(), nil
}

func (l *ledger) ListByCustomer(_ context.Context, customerID uint, _ ListParams) ([]*Purchase, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Purchase
	for _, p := range l.rows {
		if p.CustomerID == customerID {
			out = append(out, p.Clone())
		}
	}
	return out, int64(len(out)), nil
}

// passthroughTx 直接执行fn,记录事务次数
type passthroughTx struct {
	calls int
}

func (tx *passthroughTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

type recorder struct {
	mu     sync.Mutex
	events []CommittedEvent
	err    error
}

func (r *recorder) Publish(_ context.Context, e CommittedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	catalog   *catalog
	ledger    *ledger
	tx        *passthroughTx
	publisher *recorder
	svc       Service
}

func newFixture(books ...*book.Book) *fixture {
	f := &fixture{
		catalog:   newCatalog(books...),
		ledger:    newLedger(),
		tx:        &passthroughTx{},
		publisher: &recorder{},
	}
	f.svc = NewService(f.ledger, f.catalog, f.tx, f.publisher, zap.NewNop())
	return f
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =========================================
// 场景测试
// =========================================

func TestCreate_ValidPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		&book.Book{ID: 1, Name: "Dom Casmurro", Price: price("10.00"), Status: book.StatusActive},
		&book.Book{ID: 2, Name: "Iracema", Price: price("5.00"), Status: book.StatusActive},
	)

	p, err := f.svc.Create(ctx, 42, []uint{1, 2})
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, uint(42), p.CustomerID)
	assert.True(t, p.Price.Equal(price("15")), "price=%s", p.Price)
	assert.Empty(t, p.NFE)
	assert.Equal(t, []uint{1, 2}, p.BookIDs())
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, p.ID, event.Purchase.ID)
	assert.True(t, event.Purchase.Price.Equal(p.Price))

	// 购买流程本身不修改图书状态
	assert.Equal(t, book.StatusActive, f.catalog.rows[1].Status)
	assert.Equal(t, book.StatusActive, f.catalog.rows[2].Status)
}

func TestCreate_UnsellableBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&book.Book{ID: 3, Name: "Senhora", Price: price("8"), Status: book.StatusSold})

	_, err := f.svc.Create(ctx, 1, []uint{3})

	var unsellable *UnsellableError
	require.ErrorAs(t, err, &unsellable)
	assert.Equal(t, uint(3), unsellable.BookID)
	assert.ErrorIs(t, err, ErrUnsellable)
	assert.Zero(t, f.ledger.saves)
	assert.Empty(t, f.publisher.events)
}

func TestCreate_FirstUnsellableIsReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive},
		&book.Book{ID: 2, Price: price("1"), Status: book.StatusCancelled},
		&book.Book{ID: 3, Price: price("1"), Status: book.StatusDeleted},
	)

	_, err := f.svc.Create(ctx, 1, []uint{3, 2, 1})

	var unsellable *UnsellableError
	require.ErrorAs(t, err, &unsellable)
	assert.Equal(t, uint(2), unsellable.BookID)
	assert.Equal(t, book.StatusCancelled, unsellable.Status)
}

func TestCreate_BooksNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.Create(ctx, 1, []uint{999})

	var notFound *BooksNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []uint{999}, notFound.BookIDs)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.Contains(t, err.Error(), "999")
	assert.Zero(t, f.ledger.saves)
	assert.Empty(t, f.publisher.events)
}

func TestCreate_PartiallyMissingBooksAreIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&book.Book{ID: 1, Price: price("4.50"), Status: book.StatusActive})

	p, err := f.svc.Create(ctx, 1, []uint{1, 999})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, p.BookIDs())
	assert.True(t, p.Price.Equal(price("4.5")))
}

func TestCreate_EmptyBookSet(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrEmptyBookSet)
	assert.Zero(t, f.tx.calls, "空列表不应开启事务")
}

func TestCreate_PublishFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	f := newFixture(&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive})
	f.publisher.err = errors.New("broker down")
	f.svc = NewService(f.ledger, f.catalog, f.tx, f.publisher, zap.New(core))

	p, err := f.svc.Create(context.Background(), 1, []uint{1})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ledger.saves)

	entries := logs.FilterField(zap.Uint("purchase_id", p.ID)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "发布购买事件失败", entries[0].Message)
}

func TestCreate_StorageErrorAborts(t *testing.T) {
	boom := errors.New("connection reset")
	f := newFixture(&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive})
	f.svc = NewService(failingLedger{boom}, f.catalog, f.tx, f.publisher, zap.NewNop())

	_, err := f.svc.Create(context.Background(), 1, []uint{1})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.publisher.events)
}

type failingLedger struct{ err error }

func (l failingLedger) Save(context.Context, *Purchase) error   { return l.err }
func (l failingLedger) Update(context.Context, *Purchase) error { return l.err }
func (l failingLedger) AssignNFE(context.Context, uint, string) (bool, error) {
	return false, l.err
}
func (l failingLedger) FindByID(context.Context, uint) (*Purchase, error) {
	return nil, l.err
}
func (l failingLedger) ListByCustomer(context.Context, uint, ListParams) ([]*Purchase, int64, error) {
	return nil, 0, l.err
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive})

	p, err := f.svc.Create(ctx, 1, []uint{1})
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, p.WithNFE("nfe-1")))
	got, err := f.svc.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "nfe-1", got.NFE)
	assert.True(t, got.Price.Equal(p.Price))

	err = f.svc.Update(ctx, &Purchase{ID: 12345})
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestAssignInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(
		&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive},
		&book.Book{ID: 2, Price: price("2"), Status: book.StatusActive},
	)

	p, err := f.svc.Create(ctx, 1, []uint{1})
	require.NoError(t, err)

	t.Run("尚未开票时写入", func(t *testing.T) {
		assigned, err := f.svc.AssignInvoice(ctx, p.ID, "nfe-1")
		require.NoError(t, err)
		assert.True(t, assigned)

		got, err := f.svc.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "nfe-1", got.NFE)
		assert.True(t, got.Price.Equal(p.Price))
	})

	t.Run("已有发票号时不覆盖", func(t *testing.T) {
		assigned, err := f.svc.AssignInvoice(ctx, p.ID, "nfe-2")
		require.NoError(t, err)
		assert.False(t, assigned)

		got, err := f.svc.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "nfe-1", got.NFE)
	})

	t.Run("空发票号", func(t *testing.T) {
		other, err := f.svc.Create(ctx, 1, []uint{2})
		require.NoError(t, err)

		_, err = f.svc.AssignInvoice(ctx, other.ID, "")
		assert.ErrorIs(t, err, ErrEmptyNFE)
	})

	t.Run("购买不存在", func(t *testing.T) {
		_, err := f.svc.AssignInvoice(ctx, 12345, "nfe-3")
		assert.ErrorIs(t, err, ErrPurchaseNotFound)
	})
}

func TestAssignInvoice_ConcurrentWritesKeepFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&book.Book{ID: 1, Price: price("1"), Status: book.StatusActive})
	p, err := f.svc.Create(ctx, 1, []uint{1})
	require.NoError(t, err)

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nfe := fmt.Sprintf("nfe-%d", i)
			assigned, err := f.svc.AssignInvoice(ctx, p.ID, nfe)
			if !assert.NoError(t, err) || !assigned {
				return
			}
			mu.Lock()
			winners = append(winners, nfe)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	got, err := f.svc.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.NFE)
}

func TestEventCarriesIndependentCopy(t *testing.T) {
	p := &Purchase{ID: 1, Books: []PurchasedBook{{BookID: 1, Name: "a"}}}
	e := NewCommittedEvent(p)

	e.Purchase.Books[0].Name = "changed"
	assert.Equal(t, "a", p.Books[0].Name)
}

// =========================================
// 性质测试
// =========================================

var allStatuses = []book.Status{
	book.StatusActive, book.StatusSold, book.StatusCancelled, book.StatusDeleted,
}

func TestCreate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "catalogSize")
		books := make([]*book.Book, 0, n)
		for i := 1; i <= n; i++ {
			books = append(books, &book.Book{
				ID:     uint(i),
				Name:   fmt.Sprintf("book-%d", i),
				Price:  decimal.New(rapid.Int64Range(0, 100000).Draw(t, "cents"), -2),
				Status: rapid.SampledFrom(allStatuses).Draw(t, "status"),
			})
		}
		ids := rapid.SliceOfN(rapid.UintRange(1, 12), 1, 6).Draw(t, "bookIDs")

		f := newFixture(books...)
		before := f.catalog.statuses()
		resolved, _ := f.catalog.FindAllByIDs(context.Background(), ids)

		p, err := f.svc.Create(context.Background(), 7, ids)

		// 无论成功与否,购买流程都不修改图书状态
		require.Equal(t, before, f.catalog.statuses())

		if len(resolved) == 0 {
			var notFound *BooksNotFoundError
			require.ErrorAs(t, err, &notFound)
			require.Equal(t, ids, notFound.BookIDs)
			require.Zero(t, f.ledger.saves)
			require.Empty(t, f.publisher.events)
			return
		}

		for _, b := range resolved {
			if !b.IsSellable() {
				var unsellable *UnsellableError
				require.ErrorAs(t, err, &unsellable)
				require.Equal(t, b.ID, unsellable.BookID)
				require.Zero(t, f.ledger.saves)
				require.Empty(t, f.publisher.events)
				return
			}
		}

		require.NoError(t, err)
		want := decimal.Zero
		for _, b := range resolved {
			want = want.Add(b.Price)
		}
		require.True(t, p.Price.Equal(want), "price %s != %s", p.Price, want)
		require.Equal(t, 1, f.ledger.saves)
		require.Len(t, f.publisher.events, 1)
		require.Equal(t, p.ID, f.publisher.events[0].Purchase.ID)
		require.Equal(t, book.IDs(resolved), f.publisher.events[0].Purchase.BookIDs())
	})
}
