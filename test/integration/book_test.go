//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBookLifecycle 上架、修改、下架
func TestBookLifecycle(t *testing.T) {
	ownerID, owner := RegisterCustomer(t, "Owner")
	_, other := RegisterCustomer(t, "Other")

	bookID := PublishBook(t, owner, "O Cortiço", "19.90")
	b := GetBook(t, bookID)
	assert.Equal(t, ownerID, b.CustomerID)
	assert.Equal(t, "ACTIVE", b.Status)
	assert.True(t, b.Price.Equal(decimal.RequireFromString("19.90")))

	t.Run("非所有者不能修改", func(t *testing.T) {
		resp := Do(t, http.MethodPut, fmt.Sprintf("/books/%d", bookID), map[string]string{"price": "1.00"}, other)
		assert.Equal(t, http.StatusForbidden, resp.Status)
	})

	t.Run("所有者修改价格", func(t *testing.T) {
		resp := Do(t, http.MethodPut, fmt.Sprintf("/books/%d", bookID), map[string]string{"price": "24.00"}, owner)
		require.Equal(t, http.StatusOK, resp.Status, resp.Message)
		assert.True(t, GetBook(t, bookID).Price.Equal(decimal.NewFromInt(24)))
	})

	t.Run("下架", func(t *testing.T) {
		resp := Do(t, http.MethodDelete, fmt.Sprintf("/books/%d", bookID), nil, owner)
		require.Equal(t, http.StatusNoContent, resp.Status, resp.Message)
		assert.Equal(t, "CANCELLED", GetBook(t, bookID).Status)

		resp = Do(t, http.MethodPut, fmt.Sprintf("/books/%d", bookID), map[string]string{"name": "Novo"}, owner)
		assert.Equal(t, 40007, resp.Code)
	})
}

// TestBookList 分页与ACTIVE过滤
func TestBookList(t *testing.T) {
	resp := Do(t, http.MethodGet, "/books?page=1&size=2", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var page PageData
	Decode(t, resp, &page)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.Size)

	resp = Do(t, http.MethodGet, "/books/active", nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = Do(t, http.MethodGet, "/books/not-a-number", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
}
