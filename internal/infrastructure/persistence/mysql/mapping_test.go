package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
)

func TestCustomerMapping_Roles(t *testing.T) {
	c := customer.NewCustomer("Ana", "ana@example.com", "hash")
	c.Roles = append(c.Roles, customer.RoleAdmin)

	model := toCustomerModel(c)
	assert.Equal(t, "CUSTOMER,ADMIN", model.Roles)

	back := toCustomerEntity(model)
	assert.Equal(t, []customer.Role{customer.RoleCustomer, customer.RoleAdmin}, back.Roles)
	assert.True(t, back.HasRole(customer.RoleAdmin))

	empty := toCustomerEntity(&CustomerModel{Roles: ""})
	assert.Empty(t, empty.Roles)
}

func TestSplitRoles(t *testing.T) {
	assert.Nil(t, splitRoles(""))
	assert.Equal(t, []string{"CUSTOMER", "ADMIN"}, splitRoles(" CUSTOMER, ,ADMIN "))
}

func TestPurchaseMapping_KeepsSnapshotOrder(t *testing.T) {
	books := []*book.Book{
		{ID: 7, Name: "Dom Casmurro", Price: decimal.RequireFromString("19.90"), Status: book.StatusActive},
		{ID: 3, Name: "Grande Sertão", Price: decimal.RequireFromString("45.10"), Status: book.StatusActive},
	}
	p := purchase.NewPurchase(1, books)
	p.NFE = "nfe-1"

	model := toPurchaseModel(p)
	assert.Len(t, model.Books, 2)
	assert.Equal(t, uint(7), model.Books[0].BookID)
	assert.Equal(t, "nfe-1", model.NFE)

	back := toPurchaseEntity(model)
	assert.Equal(t, []uint{7, 3}, back.BookIDs())
	assert.True(t, back.Price.Equal(decimal.RequireFromString("65.00")))
}

func TestBookMapping(t *testing.T) {
	b := book.NewBook("O Alienista", decimal.RequireFromString("12.50"), 9)
	b.ID = 4

	back := toBookEntity(toBookModel(b))
	assert.Equal(t, b.ID, back.ID)
	assert.Equal(t, book.StatusActive, back.Status)
	assert.Equal(t, uint(9), back.CustomerID)
	assert.True(t, back.Price.Equal(b.Price))
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm翻译后的错误", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"MySQL 1062", errors.New("Error 1062 (23000): Duplicate entry 'a@b.com' for key 'idx_customers_email'"), true},
		{"PostgreSQL 23505", errors.New(`ERROR: duplicate key value violates unique constraint "idx_customers_email" (SQLSTATE 23505)`), true},
		{"其他错误", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateError(tt.err))
		})
	}
}

func TestGetDB_PrefersTransaction(t *testing.T) {
	base := &gorm.DB{Config: &gorm.Config{}}
	tx := &gorm.DB{Config: &gorm.Config{}}

	ctx := withTx(context.Background(), tx)
	assert.Same(t, tx, getDB(ctx, base))
}
