package requirements

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/infrastructure/config"
)

// requirementPayload is the wire representation of one project requirement
// as returned by the requirements service.
type requirementPayload struct {
	ProjectCode      string    `json:"project_code"`
	RequiredQuantity int64     `json:"required_quantity"`
	PriorityLevel    string    `json:"priority_level"`
	IsCritical       bool      `json:"is_critical"`
	DaysRemaining    int       `json:"days_remaining"`
	RequiredByDate   time.Time `json:"required_by_date"`
}

type requirementsEnvelope struct {
	Requirements []requirementPayload `json:"requirements"`
}

// Client fetches project requirements for an item from the external
// requirements service over HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClientLogger sets the logger for the client
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a requirements service client from configuration
func NewClient(cfg config.RequirementsConfig, opts ...ClientOption) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:   http,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientWithHTTP creates a client with a pre-configured resty client.
// Useful for testing.
func NewClientWithHTTP(http *resty.Client, opts ...ClientOption) *Client {
	c := &Client{
		http:   http,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRequirements returns the project requirements recorded for an item.
// An item unknown to the requirements service yields an empty list.
func (c *Client) FetchRequirements(ctx context.Context, itemNo string) ([]allocation.ProjectRequirement, error) {
	if itemNo == "" {
		return nil, fmt.Errorf("item number is required")
	}

	var envelope requirementsEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("itemNo", itemNo).
		SetResult(&envelope).
		Get("/items/{itemNo}/requirements")
	if err != nil {
		return nil, fmt.Errorf("requirements service request failed: %w", err)
	}

	if resp.StatusCode() == 404 {
		return []allocation.ProjectRequirement{}, nil
	}
	if resp.IsError() {
		c.logger.Warn("Requirements service returned error",
			zap.String("item_no", itemNo),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("requirements service returned status %d", resp.StatusCode())
	}

	result := make([]allocation.ProjectRequirement, 0, len(envelope.Requirements))
	for _, payload := range envelope.Requirements {
		result = append(result, allocation.ProjectRequirement{
			ProjectCode:      payload.ProjectCode,
			RequiredQuantity: payload.RequiredQuantity,
			PriorityLevel:    allocation.PriorityLevel(payload.PriorityLevel),
			IsCritical:       payload.IsCritical,
			DaysRemaining:    payload.DaysRemaining,
			RequiredByDate:   payload.RequiredByDate,
		})
	}
	return result, nil
}
