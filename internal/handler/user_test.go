package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/store"
	"github.com/josh-kwaku/user-directory/internal/testutil"
)

type stubFetcher struct {
	mu      sync.Mutex
	records []domain.UserFields
	err     error
}

func (f *stubFetcher) FetchUsers(context.Context) ([]domain.UserFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

func (f *stubFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func passthrough(next http.Handler) http.Handler { return next }

func newTestServer(t *testing.T, fetcher *stubFetcher) (*httptest.Server, *store.UserStore) {
	t.Helper()
	s := store.NewUserStore(fetcher)
	mux := Routes(NewUserHandler(s), NewHealthHandler(s), NewDocsHandler([]byte("openapi: 3.0.3\n")), passthrough)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func do(t *testing.T, method, url, body string) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func TestCreateUser_Validation(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing name and email",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantFields: []string{"name", "email"},
		},
		{
			name:       "blank name",
			body:       `{"name":"  ","email":"c@z.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantFields: []string{"name"},
		},
		{
			name:       "invalid email",
			body:       `{"name":"Cy","email":"not-an-email"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantFields: []string{"email"},
		},
		{
			name:       "display name form is not an email",
			body:       `{"name":"Cy","email":"Cy <c@z.com>"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantFields: []string{"email"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := do(t, http.MethodPost, srv.URL+"/api/v1/users", tc.body)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantCode, env.Error.Code)

			if tc.wantFields != nil {
				raw, err := json.Marshal(env.Error.Details)
				require.NoError(t, err)
				var fields []FieldError
				require.NoError(t, json.Unmarshal(raw, &fields))
				got := make([]string, len(fields))
				for i, f := range fields {
					got[i] = f.Field
				}
				assert.Equal(t, tc.wantFields, got)
			}
		})
	}

	assert.Empty(t, s.Snapshot().Items, "rejected requests must not reach the store")
}

func TestCreateUser_Success(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})
	s.CreateUser(testutil.Fields("Ana Li", "ana@x.com"))

	resp, env := do(t, http.MethodPost, srv.URL+"/api/v1/users", `{"name":"Cy","email":"c@z.com","address":{"city":"Oslo"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)

	var got userDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Cy", got.Name)
	assert.Equal(t, "", got.Phone)
	assert.Equal(t, companyDTO{}, got.Company)
	assert.Equal(t, addressDTO{City: "Oslo"}, got.Address)

	items := s.Snapshot().Items
	require.Len(t, items, 2)
	assert.Equal(t, got.ID, items[0].ID)
}

func TestCreateAndUpdate_TrimFormValues(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})

	resp, env := do(t, http.MethodPost, srv.URL+"/api/v1/users",
		`{"name":"  Cy  ","email":" c@z.com ","company":{"name":" Acme "},"address":{"city":"\tOslo "}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got userDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))

	u, ok := s.ByID(got.ID)
	require.True(t, ok)
	assert.Equal(t, "Cy", u.Name)
	assert.Equal(t, "c@z.com", u.Email)
	assert.Equal(t, "Acme", u.Company.Name)
	assert.Equal(t, "Oslo", u.Address.City)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/api/v1/users/"+got.ID, `{"email":"  cy@z.com","phone":" 555 "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, ok = s.ByID(got.ID)
	require.True(t, ok)
	assert.Equal(t, "cy@z.com", u.Email)
	assert.Equal(t, "555", u.Phone)
}

func TestCreateUser_ResponseHasEveryField(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	_, env := do(t, http.MethodPost, srv.URL+"/api/v1/users", `{"name":"Cy","email":"c@z.com"}`)

	assert.JSONEq(t, `{
		"id": `+string(mustField(t, env.Data, "id"))+`,
		"name": "Cy",
		"email": "c@z.com",
		"phone": "",
		"website": "",
		"company": {"name": ""},
		"address": {"street": "", "suite": "", "city": "", "zipcode": ""}
	}`, string(env.Data))
}

func mustField(t *testing.T, data json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	v, ok := m[key]
	require.True(t, ok, "missing %s", key)
	return v
}

func TestGetUser(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})
	id := s.CreateUser(testutil.Fields("Ana Li", "ana@x.com"))

	resp, env := do(t, http.MethodGet, srv.URL+"/api/v1/users/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got userDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Ana Li", got.Name)

	resp, env = do(t, http.MethodGet, srv.URL+"/api/v1/users/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
}

func TestUpdateUser(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})
	id := s.CreateUser(domain.UserFields{
		Name:    testutil.Str("Ana Li"),
		Email:   testutil.Str("ana@x.com"),
		Company: &domain.CompanyFields{Name: testutil.Str("Acme")},
	})

	resp, env := do(t, http.MethodPatch, srv.URL+"/api/v1/users/"+id, `{"phone":"555-0100","company":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got userDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ana Li", got.Name)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, companyDTO{}, got.Company)

	resp, env = do(t, http.MethodPatch, srv.URL+"/api/v1/users/"+id, `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	resp, env = do(t, http.MethodPatch, srv.URL+"/api/v1/users/missing", `{"phone":"1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
}

func TestDeleteUser(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})
	id := s.CreateUser(testutil.Fields("Ana Li", "ana@x.com"))

	resp, _ := do(t, http.MethodDelete, srv.URL+"/api/v1/users/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, s.Snapshot().Items)

	resp, env := do(t, http.MethodDelete, srv.URL+"/api/v1/users/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)
}

func TestSearchAndList(t *testing.T) {
	srv, s := newTestServer(t, &stubFetcher{})
	s.CreateUser(testutil.Fields("Bo Park", "bo@y.com"))
	s.CreateUser(testutil.Fields("Ana Li", "ana@x.com"))

	resp, env := do(t, http.MethodPut, srv.URL+"/api/v1/search", `{"query":"park"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state stateDTO
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "park", state.Search)
	assert.Equal(t, 2, state.Count)

	_, env = do(t, http.MethodGet, srv.URL+"/api/v1/users", "")
	var users []userDTO
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Bo Park", users[0].Name)

	do(t, http.MethodPut, srv.URL+"/api/v1/search", `{"query":""}`)
	_, env = do(t, http.MethodGet, srv.URL+"/api/v1/users", "")
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "Ana Li", users[0].Name)

	resp, env = do(t, http.MethodPut, srv.URL+"/api/v1/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestListUsers_EmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	_, env := do(t, http.MethodGet, srv.URL+"/api/v1/users", "")

	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRefresh(t *testing.T) {
	fetcher := &stubFetcher{records: testutil.RemoteFields()}
	srv, s := newTestServer(t, fetcher)
	s.CreateUser(testutil.Fields("Local", "local@x.com"))

	resp, env := do(t, http.MethodPost, srv.URL+"/api/v1/users/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state stateDTO
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "succeeded", state.Status)
	assert.Nil(t, state.Error)
	assert.Equal(t, 2, state.Count)

	fetcher.fail(domain.ErrFetchFailed)
	resp, env = do(t, http.MethodPost, srv.URL+"/api/v1/users/refresh", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FETCH_FAILED", env.Error.Code)

	_, env = do(t, http.MethodGet, srv.URL+"/api/v1/state", "")
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "failed", state.Status)
	require.NotNil(t, state.Error)
	assert.NotEmpty(t, *state.Error)
	assert.Equal(t, 2, state.Count, "a failed fetch keeps the previous roster")
}

func TestReadiness(t *testing.T) {
	fetcher := &stubFetcher{}
	srv, s := newTestServer(t, fetcher)

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	fetcher.fail(domain.ErrFetchFailed)
	require.Error(t, s.FetchAll(context.Background()))

	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "down", body["status"])
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "fetch failed", err: domain.ErrFetchFailed, wantStatus: http.StatusBadGateway, wantCode: "FETCH_FAILED"},
		{name: "wrapped fetch failed", err: fmt.Errorf("FetchAll: %w", domain.ErrFetchFailed), wantStatus: http.StatusBadGateway, wantCode: "FETCH_FAILED"},
		{name: "app error passes through", err: ErrIdempotencyConflict, wantStatus: http.StatusConflict, wantCode: "IDEMPOTENCY_CONFLICT"},
		{name: "unknown", err: assert.AnError, wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var env envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantCode, env.Error.Code)
		})
	}
}
