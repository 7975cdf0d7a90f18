//go:build integration

// Package integration 针对运行中服务的端到端测试
//
// 运行方式（需要先启动MySQL、Redis与服务本身）：
//
//	go run ./cmd/api
//	go test -tags integration -v ./test/integration/...
//
// 服务地址可通过MERCADOLIVRO_BASE_URL覆盖
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
	// Password 测试客户统一密码
	Password = "Secret123"
)

var seq atomic.Int64

// BaseURL API基础URL
func BaseURL() string {
	if v := os.Getenv("MERCADOLIVRO_BASE_URL"); v != "" {
		return v
	}
	return defaultBaseURL
}

// Response 统一响应结构
type Response struct {
	Status  int             `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CustomerData 客户响应数据
type CustomerData struct {
	ID     uint     `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Status string   `json:"status"`
	Roles  []string `json:"roles"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// BookData 图书响应数据
type BookData struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CustomerID uint            `json:"customer_id"`
	Status     string          `json:"status"`
}

// PageData 分页响应数据
type PageData struct {
	Items       json.RawMessage `json:"items"`
	CurrentPage int             `json:"current_page"`
	TotalItems  int64           `json:"total_items"`
	Size        int             `json:"size"`
	TotalPages  int             `json:"total_pages"`
}

// PurchaseData 购买响应数据
type PurchaseData struct {
	ID         uint            `json:"id"`
	CustomerID uint            `json:"customer_id"`
	Price      decimal.Decimal `json:"price"`
	NFE        string          `json:"nfe"`
	Books      []struct {
		BookID uint            `json:"book_id"`
		Price  decimal.Decimal `json:"price"`
	} `json:"books"`
}

// Send 发送请求并解析统一响应，可在非测试协程中调用
func Send(method, path string, body interface{}, token string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("JSON序列化失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, BaseURL()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	result := &Response{Status: resp.StatusCode}
	if len(raw) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("解析JSON响应失败: %s: %w", string(raw), err)
	}
	return result, nil
}

// Do 发送请求，失败时终止测试
func Do(t *testing.T, method, path string, body interface{}, token string) *Response {
	t.Helper()
	resp, err := Send(method, path, body, token)
	require.NoError(t, err)
	return resp
}

// Decode 解码data字段
func Decode(t *testing.T, resp *Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v), "解析data失败: %s", string(resp.Data))
}

// UniqueEmail 生成唯一的测试邮箱
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// RegisterCustomer 注册并登录客户，返回客户ID与Access Token
func RegisterCustomer(t *testing.T, name string) (uint, string) {
	t.Helper()
	email := UniqueEmail("customer")

	resp := Do(t, http.MethodPost, "/customers", map[string]string{
		"name": name, "email": email, "password": Password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.Status, "注册失败: %s", resp.Message)
	var customer CustomerData
	Decode(t, resp, &customer)

	resp = Do(t, http.MethodPost, "/login", map[string]string{
		"email": email, "password": Password,
	}, "")
	require.Equal(t, http.StatusOK, resp.Status, "登录失败: %s", resp.Message)
	var login LoginData
	Decode(t, resp, &login)

	return customer.ID, login.AccessToken
}

// PublishBook 上架图书并返回图书ID
func PublishBook(t *testing.T, token, name, price string) uint {
	t.Helper()
	resp := Do(t, http.MethodPost, "/books", map[string]string{"name": name, "price": price}, token)
	require.Equal(t, http.StatusCreated, resp.Status, "图书上架失败: %s", resp.Message)
	var b BookData
	Decode(t, resp, &b)
	return b.ID
}

// GetBook 查询图书
func GetBook(t *testing.T, id uint) BookData {
	t.Helper()
	resp := Do(t, http.MethodGet, fmt.Sprintf("/books/%d", id), nil, "")
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	var b BookData
	Decode(t, resp, &b)
	return b
}
