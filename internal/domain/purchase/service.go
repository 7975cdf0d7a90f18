package purchase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
)

// Service 购买流程
// 核心流程(Create):
//  1. 同一事务内:批量读取图书 → 校验全部在售 → 保存购买记录
//  2. 事务提交后发布CommittedEvent,不等待订阅者
//  3. 订阅者异步完成:标记图书已售出、分配发票号
type Service interface {
	// Create 创建购买
	// 错误:
	// - ErrEmptyBookSet: bookIDs为空
	// - *BooksNotFoundError: 一本图书都查不到
	// - *UnsellableError: 存在非在售图书
	Create(ctx context.Context, customerID uint, bookIDs []uint) (*Purchase, error)

	// Update 整条覆盖购买记录(发票订阅者使用)
	Update(ctx context.Context, purchase *Purchase) error

	// AssignInvoice 为尚未开票的购买写入发票号
	// 已有发票号时返回false且不做修改,写入以数据库中的状态为准
	AssignInvoice(ctx context.Context, id uint, nfe string) (bool, error)

	// FindByID 查询购买记录
	FindByID(ctx context.Context, id uint) (*Purchase, error)

	// ListByCustomer 查询某客户的购买记录
	ListByCustomer(ctx context.Context, customerID uint, params ListParams) ([]*Purchase, int64, error)
}

type service struct {
	repo      Repository
	books     book.Reader
	tx        Transactor
	publisher Publisher
	logger    *zap.Logger
}

// NewService 创建购买服务
// 只依赖book.Reader:图书状态由订阅者通过book.Writer修改
func NewService(repo Repository, books book.Reader, tx Transactor, publisher Publisher, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		books:     books,
		tx:        tx,
		publisher: publisher,
		logger:    logger.Named("purchase"),
	}
}

// Create 创建购买
//
// 并发说明:
// 读取图书不加锁(不使用SELECT FOR UPDATE)。两个并发请求可能都看到同一本书为ACTIVE,
// 两笔购买都会成功,之后对账订阅者重复标记SOLD,后写入者生效。
func (s *service) Create(ctx context.Context, customerID uint, bookIDs []uint) (*Purchase, error) {
	// 1. 参数校验
	if len(bookIDs) == 0 {
		return nil, ErrEmptyBookSet
	}

	var created *Purchase
	err := s.tx.Transaction(ctx, func(txCtx context.Context) error {
		// 2. 批量读取图书(不存在的ID被忽略)
		books, err := s.books.FindAllByIDs(txCtx, bookIDs)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			return &BooksNotFoundError{BookIDs: append([]uint(nil), bookIDs...)}
		}

		// 3. 按返回顺序校验,遇到第一本非在售图书即失败
		for _, b := range books {
			if !b.IsSellable() {
				return &UnsellableError{BookID: b.ID, Status: b.Status}
			}
		}

		// 4. 生成快照并保存
		p := NewPurchase(customerID, books)
		if err := s.repo.Save(txCtx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. 事务已提交,发布事件
	// 发布失败只记录日志:购买已经生效,不能再向调用方返回失败
	if err := s.publisher.Publish(ctx, NewCommittedEvent(created)); err != nil {
		s.logger.Error("发布购买事件失败",
			zap.Uint("purchase_id", created.ID),
			zap.Uint("customer_id", created.CustomerID),
			zap.Error(err),
		)
	}

	return created, nil
}

func (s *service) Update(ctx context.Context, purchase *Purchase) error {
	return s.repo.Update(ctx, purchase)
}

func (s *service) AssignInvoice(ctx context.Context, id uint, nfe string) (bool, error) {
	if nfe == "" {
		return false, ErrEmptyNFE
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current.HasInvoice() {
		return false, nil
	}

	// 条件写入:读取之后被其他投递抢先开票时不会覆盖
	return s.repo.AssignNFE(ctx, id, nfe)
}

func (s *service) FindByID(ctx context.Context, id uint) (*Purchase, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByCustomer(ctx context.Context, customerID uint, params ListParams) ([]*Purchase, int64, error) {
	params.Normalize()
	return s.repo.ListByCustomer(ctx, customerID, params)
}
