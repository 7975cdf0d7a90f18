//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCustomerRegister 注册、邮箱唯一性与登录
func TestCustomerRegister(t *testing.T) {
	email := UniqueEmail("register")

	t.Run("正常注册", func(t *testing.T) {
		resp := Do(t, http.MethodPost, "/customers", map[string]string{
			"name": "Ana Souza", "email": email, "password": Password,
		}, "")
		require.Equal(t, http.StatusCreated, resp.Status, resp.Message)

		var c CustomerData
		Decode(t, resp, &c)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "ACTIVE", c.Status)
		assert.Equal(t, []string{"CUSTOMER"}, c.Roles)
	})

	t.Run("重复邮箱", func(t *testing.T) {
		resp := Do(t, http.MethodPost, "/customers", map[string]string{
			"name": "Outra Ana", "email": email, "password": Password,
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, 40003, resp.Code)
	})

	t.Run("邮箱可用性", func(t *testing.T) {
		resp := Do(t, http.MethodGet, "/customers/email-available?email="+url.QueryEscape(email), nil, "")
		require.Equal(t, http.StatusOK, resp.Status)
		var r struct {
			Available bool `json:"available"`
		}
		Decode(t, resp, &r)
		assert.False(t, r.Available)
	})

	t.Run("密码错误", func(t *testing.T) {
		resp := Do(t, http.MethodPost, "/login", map[string]string{
			"email": email, "password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})
}

// TestCustomerAccess 只能读取自己的资料
func TestCustomerAccess(t *testing.T) {
	aliceID, alice := RegisterCustomer(t, "Alice")
	bobID, _ := RegisterCustomer(t, "Bob")

	resp := Do(t, http.MethodGet, fmt.Sprintf("/customers/%d", aliceID), nil, alice)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = Do(t, http.MethodGet, fmt.Sprintf("/customers/%d", bobID), nil, alice)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = Do(t, http.MethodGet, fmt.Sprintf("/customers/%d", aliceID), nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

// TestLogout 登出后Token进入黑名单
func TestLogout(t *testing.T) {
	id, token := RegisterCustomer(t, "Logout")

	resp := Do(t, http.MethodPost, "/logout", nil, token)
	require.Equal(t, http.StatusNoContent, resp.Status, resp.Message)

	resp = Do(t, http.MethodGet, fmt.Sprintf("/customers/%d", id), nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, 40102, resp.Code)
}

// TestCustomerDelete 删除客户后其ACTIVE图书被下架
func TestCustomerDelete(t *testing.T) {
	id, token := RegisterCustomer(t, "Seller")
	bookID := PublishBook(t, token, "Quincas Borba", "12.50")

	resp := Do(t, http.MethodDelete, fmt.Sprintf("/customers/%d", id), nil, token)
	require.Equal(t, http.StatusNoContent, resp.Status, resp.Message)

	assert.Equal(t, "DELETED", GetBook(t, bookID).Status)
}
