// Package mysql 基于GORM的关系型持久化实现
//
// 包名沿用mysql,但通过database.driver同时支持MySQL与PostgreSQL:
// 两种方言共用同一套模型与仓储,只在NewDB中切换Dialector。
package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/mercadolivro/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 根据database.driver选择MySQL或PostgreSQL驱动
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. SQL日志输出到zap,开发环境打印全部SQL,其他环境只记录慢查询与错误
// 4. database.auto_migrate开启时自动迁移表结构
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. 选择方言
	dialector, err := openDialector(cfg.Database)
	if err != nil {
		return nil, err
	}

	// 2. 配置GORM日志
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}
	gormLogger := logger.New(zapWriter{log.Sugar()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})

	// 3. 连接数据库
	// TranslateError把驱动相关的唯一索引冲突统一翻译为gorm.ErrDuplicatedKey
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName))

	// 6. 自动迁移表结构
	// 注意：生产环境应使用版本化的迁移脚本
	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		return mysql.Open(cfg.DSN()), nil
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CustomerModel{},
		&BookModel{},
		&PurchaseModel{},
		&PurchaseBookModel{},
	)
}

// zapWriter 把GORM日志转发到zap
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

// CustomerModel GORM客户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/customer/entity.go是领域实体，不依赖GORM
// 3. 角色以逗号分隔的字符串存储（如"CUSTOMER,ADMIN"）
// 4. 删除客户是逻辑删除（status=INACTIVE），因此不使用gorm.DeletedAt
type CustomerModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"index;size:100;not null;comment:姓名"`
	Email     string    `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string    `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Status    string    `gorm:"index;size:16;not null;comment:状态(ACTIVE/INACTIVE)"`
	Roles     string    `gorm:"size:100;not null;comment:角色列表"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (CustomerModel) TableName() string {
	return "customers"
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格使用decimal(10,2)存储,shopspring/decimal负责Scan/Value
// 2. CustomerID关联customers表(图书所有者)
// 3. status索引用于活跃图书列表,customer_id索引用于按客户批量改状态
type BookModel struct {
	ID         uint            `gorm:"primaryKey"`
	Name       string          `gorm:"index;size:200;not null;comment:书名"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:价格"`
	CustomerID uint            `gorm:"index;not null;comment:所有者客户ID"`
	Status     string          `gorm:"index;size:16;not null;comment:状态(ACTIVE/SOLD/CANCELLED/DELETED)"`
	CreatedAt  time.Time       `gorm:"comment:创建时间"`
	UpdatedAt  time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// PurchaseModel GORM购买记录模型
// 1. 与PurchaseBookModel是一对多关系(购买时的图书快照)
// 2. NFE为空字符串表示尚未开票
type PurchaseModel struct {
	ID         uint                `gorm:"primaryKey"`
	CustomerID uint                `gorm:"index;not null;comment:买家客户ID"`
	Price      decimal.Decimal     `gorm:"type:decimal(10,2);not null;comment:总金额"`
	NFE        string              `gorm:"column:nfe;index;size:64;comment:发票号"`
	Books      []PurchaseBookModel `gorm:"foreignKey:PurchaseID"`
	CreatedAt  time.Time           `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (PurchaseModel) TableName() string {
	return "purchases"
}

// PurchaseBookModel 购买时的图书快照
// 记录下单时的书名与价格,之后图书被修改不影响历史购买记录
type PurchaseBookModel struct {
	ID         uint            `gorm:"primaryKey"`
	PurchaseID uint            `gorm:"index;not null;comment:购买记录ID"`
	BookID     uint            `gorm:"index;not null;comment:图书ID"`
	Name       string          `gorm:"size:200;not null;comment:购买时书名"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:购买时价格"`
}

// TableName 指定表名
func (PurchaseBookModel) TableName() string {
	return "purchase_books"
}
