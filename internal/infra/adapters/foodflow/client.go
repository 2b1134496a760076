package foodflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/domain/model"
	"foodflow-pickup/internal/domain/ports/adapter"
)

var (
	_ adapter.PickupCompleter         = (*Client)(nil)
	_ adapter.TolerancePolicyProvider = (*Client)(nil)
)

// Client talks to the FoodFlow REST backend.
type Client struct {
	base   string
	client *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("foodflow base url empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid foodflow base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

// CompletePickup marks the donation picked up. Any non-2xx answer or
// transport failure is a *domain.VerificationFailedError; the backend's
// message, when it sends one, is kept verbatim.
func (c *Client) CompletePickup(ctx context.Context, cred adapter.Credential, donationID, code string) error {
	b, _ := json.Marshal(map[string]string{"pickupCode": code})
	endpoint := fmt.Sprintf("%s/api/donations/%s/complete", c.base, url.PathEscape(donationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(b))
	if err != nil {
		return &domain.VerificationFailedError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.VerificationFailedError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var out struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &out)
	return &domain.VerificationFailedError{
		Reason: strings.TrimSpace(out.Message),
		Err:    fmt.Errorf("complete pickup http %d", resp.StatusCode),
	}
}

// GetTolerancePolicy reads the backend's pickup tolerance settings.
func (c *Client) GetTolerancePolicy(ctx context.Context) (*model.TolerancePolicy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/pickup-tolerance", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pickup tolerance http %d", resp.StatusCode)
	}
	var out struct {
		Early *int `json:"earlyToleranceMinutes"`
		Late  *int `json:"lateToleranceMinutes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode pickup tolerance: %w", err)
	}
	if out.Early == nil || out.Late == nil {
		return nil, fmt.Errorf("%w: pickup tolerance response incomplete", domain.ErrInvalidArgument)
	}
	return model.NewTolerancePolicy(*out.Early, *out.Late)
}
