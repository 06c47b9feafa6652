package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hustle/internal/econ"
)

type Client struct {
	BaseURL   string
	AccountID string
	HTTP      *http.Client
}

func NewClient(baseURL, accountID string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		AccountID: accountID,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Balance(ctx context.Context) (econ.BalanceView, error) {
	var out econ.BalanceView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/balance", nil, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (econ.ProfileView, error) {
	var out econ.ProfileView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/profile", nil, &out)
	return out, err
}

func (c *Client) Jobs(ctx context.Context) ([]econ.Job, error) {
	var out struct {
		Jobs []econ.Job `json:"jobs"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/jobs", nil, &out)
	return out.Jobs, err
}

func (c *Client) ApplyJob(ctx context.Context, job string) (econ.ProfileView, error) {
	var out econ.ProfileView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/jobs/apply", map[string]any{"job": job}, &out)
	return out, err
}

func (c *Client) Work(ctx context.Context) (econ.WorkResult, error) {
	var out econ.WorkResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/work", nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]econ.LeaderboardRow, error) {
	var out struct {
		Rows []econ.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, leaderboardPath("/v1/leaderboard", limit), nil, &out)
	return out.Rows, err
}

func (c *Client) CreateCompany(ctx context.Context, name string) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies", map[string]any{"name": name}, &out)
	return out, err
}

func (c *Client) CompanyInfo(ctx context.Context) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/companies/info", nil, &out)
	return out, err
}

func (c *Client) CompanyLeaderboard(ctx context.Context, limit int) ([]econ.CompanyLeaderboardRow, error) {
	var out struct {
		Rows []econ.CompanyLeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, leaderboardPath("/v1/companies/leaderboard", limit), nil, &out)
	return out.Rows, err
}

func (c *Client) Invite(ctx context.Context, targetID string) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/invite", map[string]any{"target_id": targetID}, &out)
	return out, err
}

func (c *Client) Accept(ctx context.Context) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/accept", nil, &out)
	return out, err
}

func (c *Client) LeaveCompany(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/companies/leave", nil, nil)
}

func (c *Client) Deposit(ctx context.Context, amount int64) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/deposit", map[string]any{"amount": amount}, &out)
	return out, err
}

func (c *Client) Withdraw(ctx context.Context, amount int64) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/withdraw", map[string]any{"amount": amount}, &out)
	return out, err
}

func (c *Client) SetSalary(ctx context.Context, amount int64) (econ.CompanyView, error) {
	var out econ.CompanyView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/companies/salary", map[string]any{"amount": amount}, &out)
	return out, err
}

func leaderboardPath(base string, limit int) string {
	if limit <= 0 {
		return base
	}
	return base + "?limit=" + strconv.Itoa(limit)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccountID != "" {
		req.Header.Set("X-Account-ID", c.AccountID)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
