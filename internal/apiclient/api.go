package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"financeai/internal/core"

	"github.com/shopspring/decimal"
)

type (
	AuthResponse struct {
		Token string    `json:"token"`
		User  core.User `json:"user"`
	}

	SignupRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	ListParams struct {
		Type      core.Kind
		Category  string
		Q         string
		StartDate time.Time
		EndDate   time.Time
		Page      int
		Limit     int
	}

	TransactionResponse struct {
		Data core.Transaction `json:"data"`
	}

	DeleteResponse struct {
		OK bool `json:"ok"`
	}

	AffordabilityRequest struct {
		ProductName  string           `json:"productName"`
		ProductPrice *decimal.Decimal `json:"productPrice,omitempty"`
		UserIncome   *decimal.Decimal `json:"userIncome,omitempty"`
		UserExpenses *decimal.Decimal `json:"userExpenses,omitempty"`
	}

	ProductDetails struct {
		AIOutput string `json:"aiOutput"`
	}

	Affordability struct {
		ProductName    string          `json:"productName"`
		ProductPrice   decimal.Decimal `json:"productPrice"`
		MonthlySavings decimal.Decimal `json:"monthlySavings"`
		MonthsToAfford int             `json:"monthsToAfford"`
		Explanation    string          `json:"explanation"`
		ProductDetails ProductDetails  `json:"productDetails"`
	}

	AffordabilityResponse struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Data    Affordability `json:"data"`
	}
)

// Values encodes only the parameters that are set.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Type != "" {
		v.Set("type", string(p.Type))
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Q != "" {
		v.Set("q", p.Q)
	}
	if !p.StartDate.IsZero() {
		v.Set("startDate", p.StartDate.Format(time.DateOnly))
	}
	if !p.EndDate.IsZero() {
		v.Set("endDate", p.EndDate.Format(time.DateOnly))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	return Request[AuthResponse](ctx, c, "/api/auth/signup", RequestOptions{Method: http.MethodPost, Body: req})
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	return Request[AuthResponse](ctx, c, "/api/auth/login", RequestOptions{Method: http.MethodPost, Body: req})
}

func (c *Client) ListTransactions(ctx context.Context, params ListParams, token string) (core.Page, error) {
	return Request[core.Page](ctx, c, "/api/transactions", RequestOptions{
		Method:    http.MethodGet,
		Query:     params.Values(),
		AuthToken: token,
	})
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput, token string) (core.Transaction, error) {
	resp, err := Request[TransactionResponse](ctx, c, "/api/transactions", RequestOptions{
		Method:    http.MethodPost,
		Body:      in,
		AuthToken: token,
	})
	return resp.Data, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput, token string) (core.Transaction, error) {
	resp, err := Request[TransactionResponse](ctx, c, "/api/transactions/"+url.PathEscape(id), RequestOptions{
		Method:    http.MethodPut,
		Body:      in,
		AuthToken: token,
	})
	return resp.Data, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string, token string) error {
	_, err := Request[DeleteResponse](ctx, c, "/api/transactions/"+url.PathEscape(id), RequestOptions{
		Method:    http.MethodDelete,
		AuthToken: token,
	})
	return err
}

func (c *Client) CheckAffordability(ctx context.Context, req AffordabilityRequest, token string) (AffordabilityResponse, error) {
	return Request[AffordabilityResponse](ctx, c, "/api/ai-playground", RequestOptions{
		Method:    http.MethodPost,
		Body:      req,
		AuthToken: token,
	})
}
