// Package supabase implements the ledger store on the Supabase PostgREST
// API — the same backend the expense bot writes to.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	table          string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase ledger client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey, table string, cb *gobreaker.CircuitBreaker, bulkhead *resilience.Bulkhead, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		table:          table,
		cb:             cb,
		bulkhead:       bulkhead,
		cfg:            cfg,
		logger:         logger,
	}
}

// doRequest executes an authenticated request against PostgREST.
// A non-nil payload is sent as a JSON body.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return nil, err
		}
		defer c.bulkhead.Release()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// expenseRow maps the bot's expense table columns.
type expenseRow struct {
	ID          json.Number `json:"id"`
	UserID      json.Number `json:"user_id"`
	CreatedAt   string      `json:"created_at"`
	Amount      float64     `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

func (r expenseRow) toDomain() (domain.Transaction, error) {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		t, err = time.Parse("2006-01-02", r.CreatedAt)
	}
	kind := domain.TxKind(r.Type)
	if !kind.Valid() {
		kind = domain.KindDebit
	}
	return domain.Transaction{
		ID:          r.ID.String(),
		Amount:      r.Amount,
		Kind:        kind,
		Category:    r.Category,
		Description: r.Description,
		OccurredAt:  t,
	}, err
}

// FetchTransactions returns the user's records inside the range,
// newest first.
func (c *Client) FetchTransactions(ctx context.Context, userID string, rng domain.DateRange) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FetchTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			q := url.Values{}
			q.Set("user_id", "eq."+userID)
			q.Add("created_at", "gte."+rng.Start.UTC().Format(time.RFC3339))
			q.Add("created_at", "lte."+rng.End.UTC().Format(time.RFC3339))
			q.Set("order", "created_at.desc")

			body, err := c.doRequest(ctx, http.MethodGet, c.table+"?"+q.Encode(), nil)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []expenseRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode expenses: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for _, r := range rows {
				tx, convErr := r.toDomain()
				if convErr != nil {
					// Keep the row; a zero timestamp beats losing money data.
					c.logger.Warn("supabase: malformed created_at on expense row",
						zap.String("transaction_id", tx.ID),
						zap.String("created_at", r.CreatedAt),
					)
				}
				transactions = append(transactions, tx)
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + c.table, Err: err}
	}

	return transactions, nil
}

// FetchInsights calls the expense_insights RPC. The function is optional
// on a project: a missing or empty response yields (nil, nil) and the
// caller falls back to window-local metrics.
func (c *Client) FetchInsights(ctx context.Context, userID string, rng domain.DateRange) (*domain.Insights, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FetchInsights")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var insights *domain.Insights

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			payload := map[string]any{
				"p_user_id": userID,
				"p_start":   rng.Start.UTC().Format(time.RFC3339),
				"p_end":     rng.End.UTC().Format(time.RFC3339),
			}
			body, err := c.doRequest(ctx, http.MethodPost, "rpc/expense_insights", payload)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" || string(body) == "null" {
				return nil
			}

			var ins domain.Insights
			if err := json.Unmarshal(body, &ins); err != nil {
				return fmt.Errorf("failed to decode insights: %w", err)
			}
			insights = &ins
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/insights", Err: err}
	}

	return insights, nil
}

// UpdateTransaction applies a partial update to one record owned by the
// user. PostgREST returns the affected rows; an empty list means no row
// matched the (id, user) pair.
func (c *Client) UpdateTransaction(ctx context.Context, userID, txID string, update domain.TransactionUpdate) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("transaction.id", txID),
	)

	if update.Empty() {
		return &domain.ErrValidation{Field: "update", Message: "no fields to update"}
	}

	fields := map[string]any{}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Amount != nil {
		fields["amount"] = *update.Amount
	}
	if update.Kind != nil {
		fields["type"] = string(*update.Kind)
	}

	var notFound bool
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
				c.table, url.QueryEscape(txID), url.QueryEscape(userID))
			body, err := c.doRequest(ctx, http.MethodPatch, path, fields)
			if err != nil {
				return err
			}
			notFound = body == nil || string(body) == "[]"
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + c.table, Err: err}
	}
	if notFound {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return nil
}

// DeleteTransaction removes one record owned by the user.
func (c *Client) DeleteTransaction(ctx context.Context, userID, txID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("transaction.id", txID),
	)

	var notFound bool
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
				c.table, url.QueryEscape(txID), url.QueryEscape(userID))
			body, err := c.doRequest(ctx, http.MethodDelete, path, nil)
			if err != nil {
				return err
			}
			notFound = body == nil || string(body) == "[]"
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/" + c.table, Err: err}
	}
	if notFound {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return nil
}

// SubmitFeatureRequest inserts a feature request row.
func (c *Client) SubmitFeatureRequest(ctx context.Context, req *domain.FeatureRequest) error {
	ctx, span := tracer.Start(ctx, "Supabase.SubmitFeatureRequest")
	defer span.End()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			payload := map[string]any{
				"text":     req.Text,
				"username": req.Username,
			}
			_, err := c.doRequest(ctx, http.MethodPost, "feature_request", payload)
			return err
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/feature_request", Err: err}
	}
	return nil
}
