package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/model"
)

// PricingClient is a typed client for the pricing API.
type PricingClient struct {
	http *HttpClient
}

func NewPricingClient(baseURL string) *PricingClient {
	return &PricingClient{http: NewHttpClient(baseURL)}
}

func NewPricingClientWith(h *HttpClient) *PricingClient {
	return &PricingClient{http: h}
}

type InventoryUpsert struct {
	Name      string `json:"name,omitempty"`
	BasePrice int64  `json:"base_price"`
	Capacity  int    `json:"capacity"`
}

func (c *PricingClient) UpsertInventory(ctx context.Context, kind model.ItemKind, itemID string, item InventoryUpsert) (*model.InventoryItem, error) {
	var out model.InventoryItem
	resp, err := c.http.PUT(ctx, inventoryPath(kind, itemID), item)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) GetQuote(ctx context.Context, kind model.ItemKind, itemID, dateKey string) (*model.Quote, error) {
	var out model.Quote
	path := fmt.Sprintf("/api/v1/quotes/%s/%s/%s", url.PathEscape(string(kind)), url.PathEscape(itemID), url.PathEscape(dateKey))
	resp, err := c.http.GET(ctx, path)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns up to days of snapshots. An empty dateKey covers every tracked date.
func (c *PricingClient) History(ctx context.Context, kind model.ItemKind, itemID string, days int, dateKey string) (*model.PriceHistory, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	if dateKey != "" {
		q.Set("date_key", dateKey)
	}
	path := fmt.Sprintf("/api/v1/history/%s/%s", url.PathEscape(string(kind)), url.PathEscape(itemID))
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out model.PriceHistory
	resp, err := c.http.GET(ctx, path)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) CreateFreeze(ctx context.Context, req *model.FreezeRequest) (*model.PriceFreeze, error) {
	return c.CreateFreezeWithKey(ctx, req, "")
}

// CreateFreezeWithKey sends idempotencyKey so that repeating the call returns the first
// result. An empty key sends none.
func (c *PricingClient) CreateFreezeWithKey(ctx context.Context, req *model.FreezeRequest, idempotencyKey string) (*model.PriceFreeze, error) {
	var (
		out  model.PriceFreeze
		resp *Response
		err  error
	)
	if idempotencyKey != "" {
		resp, err = c.http.POSTIdempotent(ctx, "/api/v1/freezes", req, idempotencyKey)
	} else {
		resp, err = c.http.POST(ctx, "/api/v1/freezes", req)
	}
	if err := decode(resp, err, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) GetFreeze(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error) {
	var out model.PriceFreeze
	path := "/api/v1/freezes/id/" + url.PathEscape(freezeID) + "?" + url.Values{"user_id": {userID}}.Encode()
	resp, err := c.http.GET(ctx, path)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) ListFreezes(ctx context.Context, userID string) (*model.FreezeList, error) {
	var out model.FreezeList
	resp, err := c.http.GET(ctx, "/api/v1/freezes?"+url.Values{"user_id": {userID}}.Encode())
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) Redeem(ctx context.Context, freezeID, userID string) (*model.PriceFreeze, error) {
	var out model.PriceFreeze
	body := map[string]string{"user_id": userID}
	resp, err := c.http.POST(ctx, "/api/v1/freezes/id/"+url.PathEscape(freezeID)+"/redeem", body)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PricingClient) RedeemByToken(ctx context.Context, token string) (*model.PriceFreeze, error) {
	var out model.PriceFreeze
	resp, err := c.http.POST(ctx, "/api/v1/freezes/redeem", map[string]string{"token": token})
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics fetches the report. top <= 0 leaves the server default.
func (c *PricingClient) Analytics(ctx context.Context, top int) (*model.AnalyticsReport, error) {
	path := "/api/v1/analytics"
	if top > 0 {
		path += "?top=" + strconv.Itoa(top)
	}
	var out model.AnalyticsReport
	resp, err := c.http.GET(ctx, path)
	if err := decode(resp, err, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func inventoryPath(kind model.ItemKind, itemID string) string {
	return fmt.Sprintf("/api/v1/inventory/%s/%s", url.PathEscape(string(kind)), url.PathEscape(itemID))
}

// decode unwraps the data envelope. Error bodies come back as *apperrors.AppError so
// callers can use apperrors.HasCode.
func decode(resp *Response, reqErr error, want int, target any) error {
	if reqErr != nil {
		return reqErr
	}
	if resp.StatusCode != want {
		var body apperrors.ErrorResponse
		if err := resp.DecodeJSON(&body); err != nil || body.Code == "" {
			return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("unexpected status %d", resp.StatusCode), resp.StatusCode)
		}
		return apperrors.New(body.Code, body.Message, resp.StatusCode).WithDetails(body.Details)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
