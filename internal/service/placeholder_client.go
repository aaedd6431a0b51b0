package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/logging"
)

type PlaceholderClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPlaceholderClient returns a client for a JSONPlaceholder-compatible API.
// A zero timeout leaves requests unbounded.
func NewPlaceholderClient(baseURL string, timeout time.Duration) *PlaceholderClient {
	return &PlaceholderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type placeholderUser struct {
	ID      json.RawMessage `json:"id"`
	Name    json.RawMessage `json:"name"`
	Email   json.RawMessage `json:"email"`
	Phone   json.RawMessage `json:"phone"`
	Website json.RawMessage `json:"website"`
	Company json.RawMessage `json:"company"`
	Address json.RawMessage `json:"address"`
}

type placeholderCompany struct {
	Name json.RawMessage `json:"name"`
}

type placeholderAddress struct {
	Street  json.RawMessage `json:"street"`
	Suite   json.RawMessage `json:"suite"`
	City    json.RawMessage `json:"city"`
	Zipcode json.RawMessage `json:"zipcode"`
}

func (c *PlaceholderClient) FetchUsers(ctx context.Context) ([]domain.UserFields, error) {
	log := logging.FromContext(ctx)

	url := c.baseURL + "/users"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchUsers: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	log.Info("placeholder request sent", "url", url)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("FetchUsers: %w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	log.Info("placeholder response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("FetchUsers: %w: unexpected status %d: %s", domain.ErrFetchFailed, resp.StatusCode, string(respBody))
	}

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("FetchUsers: %w: decode: %w", domain.ErrFetchFailed, err)
	}
	if records == nil {
		return nil, fmt.Errorf("FetchUsers: %w: expected a JSON array", domain.ErrFetchFailed)
	}

	users := make([]domain.UserFields, len(records))
	for i, raw := range records {
		users[i] = decodeUser(raw)
	}
	return users, nil
}

// decodeUser never fails; anything that is not the expected shape is left
// absent.
func decodeUser(raw json.RawMessage) domain.UserFields {
	var pu placeholderUser
	if !isObject(raw) || json.Unmarshal(raw, &pu) != nil {
		return domain.UserFields{}
	}

	f := domain.UserFields{
		ID:      looseID(pu.ID),
		Name:    looseString(pu.Name),
		Email:   looseString(pu.Email),
		Phone:   looseString(pu.Phone),
		Website: looseString(pu.Website),
	}

	var pc placeholderCompany
	if isObject(pu.Company) && json.Unmarshal(pu.Company, &pc) == nil {
		f.Company = &domain.CompanyFields{Name: looseString(pc.Name)}
	}

	var pa placeholderAddress
	if isObject(pu.Address) && json.Unmarshal(pu.Address, &pa) == nil {
		f.Address = &domain.AddressFields{
			Street:  looseString(pa.Street),
			Suite:   looseString(pa.Suite),
			City:    looseString(pa.City),
			Zipcode: looseString(pa.Zipcode),
		}
	}

	return f
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func looseString(raw json.RawMessage) *string {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return nil
	}
	return &s
}

// looseID keeps string ids verbatim and renders numbers and booleans in
// their literal form. Null and other shapes are absent.
func looseID(raw json.RawMessage) *string {
	if s := looseString(raw); s != nil {
		return s
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if isNull(raw) || dec.Decode(&v) != nil {
		return nil
	}

	switch t := v.(type) {
	case json.Number:
		s := t.String()
		return &s
	case bool:
		s := fmt.Sprint(t)
		return &s
	default:
		return nil
	}
}
