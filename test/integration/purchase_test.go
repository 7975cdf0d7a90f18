//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getPurchase(t *testing.T, id uint, token string) PurchaseData {
	t.Helper()
	resp := Do(t, http.MethodGet, fmt.Sprintf("/purchases/%d", id), nil, token)
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	var p PurchaseData
	Decode(t, resp, &p)
	return p
}

// TestPurchaseFlow 下单后异步完成：图书SOLD，发票号非空
func TestPurchaseFlow(t *testing.T) {
	buyerID, buyer := RegisterCustomer(t, "Buyer")
	_, seller := RegisterCustomer(t, "Seller")

	b1 := PublishBook(t, seller, "Iracema", "10.00")
	b2 := PublishBook(t, seller, "Senhora", "5.50")

	resp := Do(t, http.MethodPost, "/purchases", map[string]interface{}{
		"customer_id": buyerID, "book_ids": []uint{b1, b2},
	}, buyer)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var created PurchaseData
	Decode(t, resp, &created)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("15.50")), created.Price.String())
	require.Len(t, created.Books, 2)

	assert.Eventually(t, func() bool {
		return GetBook(t, b1).Status == "SOLD" && GetBook(t, b2).Status == "SOLD"
	}, 5*time.Second, 100*time.Millisecond, "图书未被标记为SOLD")

	assert.Eventually(t, func() bool {
		return getPurchase(t, created.ID, buyer).NFE != ""
	}, 5*time.Second, 100*time.Millisecond, "发票号未分配")

	// 已售出的图书不能再次购买
	resp = Do(t, http.MethodPost, "/purchases", map[string]interface{}{
		"customer_id": buyerID, "book_ids": []uint{b1},
	}, buyer)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, 40006, resp.Code)
}

// TestPurchase_PriceSnapshot 下单后改价不影响已提交的购买
func TestPurchase_PriceSnapshot(t *testing.T) {
	buyerID, buyer := RegisterCustomer(t, "Snapshot Buyer")
	_, seller := RegisterCustomer(t, "Snapshot Seller")
	bookID := PublishBook(t, seller, "A Moreninha", "8.00")

	resp := Do(t, http.MethodPost, "/purchases", map[string]interface{}{
		"customer_id": buyerID, "book_ids": []uint{bookID},
	}, buyer)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var created PurchaseData
	Decode(t, resp, &created)

	// 改价可能与订阅者竞争，SOLD之后改价会失败，这里只关心购买记录
	Do(t, http.MethodPut, fmt.Sprintf("/books/%d", bookID), map[string]string{"price": "99.00"}, seller)

	p := getPurchase(t, created.ID, buyer)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(8)))
	assert.True(t, p.Books[0].Price.Equal(decimal.NewFromInt(8)))
}

// TestPurchase_Concurrent 并发下单互不阻塞，每笔购买都得到自己的发票号
func TestPurchase_Concurrent(t *testing.T) {
	_, seller := RegisterCustomer(t, "Bulk Seller")

	const buyers = 5
	type result struct {
		id    uint
		token string
	}
	results := make([]result, buyers)

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		buyerID, token := RegisterCustomer(t, fmt.Sprintf("Buyer %d", i))
		bookID := PublishBook(t, seller, fmt.Sprintf("Livro %d", i), "3.00")

		wg.Add(1)
		go func(i int, buyerID, bookID uint, token string) {
			defer wg.Done()
			resp, err := Send(http.MethodPost, "/purchases", map[string]interface{}{
				"customer_id": buyerID, "book_ids": []uint{bookID},
			}, token)
			if err != nil {
				t.Error(err)
				return
			}
			if resp.Status != http.StatusCreated {
				t.Errorf("下单失败: %d %s", resp.Code, resp.Message)
				return
			}
			var p PurchaseData
			if err := json.Unmarshal(resp.Data, &p); err != nil {
				t.Errorf("解析购买失败: %v", err)
				return
			}
			results[i] = result{id: p.ID, token: token}
		}(i, buyerID, bookID, token)
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		seen := make(map[string]bool, buyers)
		for _, r := range results {
			if r.id == 0 {
				return false
			}
			nfe := getPurchase(t, r.id, r.token).NFE
			if nfe == "" || seen[nfe] {
				return false
			}
			seen[nfe] = true
		}
		return true
	}, 10*time.Second, 200*time.Millisecond, "发票号未全部分配或重复")
}
