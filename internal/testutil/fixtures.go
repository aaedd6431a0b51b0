package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/josh-kwaku/user-directory/internal/domain"
)

const (
	WaitTimeout = 2 * time.Second
	WaitTick    = 5 * time.Millisecond
)

// PlaceholderUsersJSON mirrors the JSONPlaceholder /users shape, including
// the loose records the client has to tolerate.
const PlaceholderUsersJSON = `[
  {
    "id": 1,
    "name": "Leanne Graham",
    "username": "Bret",
    "email": "Sincere@april.biz",
    "address": {
      "street": "Kulas Light",
      "suite": "Apt. 556",
      "city": "Gwenborough",
      "zipcode": "92998-3874",
      "geo": {"lat": "-37.3159", "lng": "81.1496"}
    },
    "phone": "1-770-736-8031 x56442",
    "website": "hildegard.org",
    "company": {"name": "Romaguera-Crona", "catchPhrase": "Multi-layered client-server neural-net"}
  },
  {
    "id": "u-2",
    "name": "Ervin Howell",
    "email": "Shanna@melissa.tv",
    "phone": null,
    "company": "not-an-object"
  },
  {
    "name": 42,
    "email": "nobody@example.com",
    "address": {"city": "Nowhere", "zipcode": 12345}
  },
  "not-a-user"
]`

func Str(s string) *string { return &s }

func Fields(name, email string) domain.UserFields {
	return domain.UserFields{Name: &name, Email: &email}
}

// RemoteFields returns two fetched records: one complete, one without an id.
func RemoteFields() []domain.UserFields {
	return []domain.UserFields{
		{
			ID:      Str("1"),
			Name:    Str("Leanne Graham"),
			Email:   Str("Sincere@april.biz"),
			Phone:   Str("1-770-736-8031 x56442"),
			Website: Str("hildegard.org"),
			Company: &domain.CompanyFields{Name: Str("Romaguera-Crona")},
			Address: &domain.AddressFields{
				Street:  Str("Kulas Light"),
				Suite:   Str("Apt. 556"),
				City:    Str("Gwenborough"),
				Zipcode: Str("92998-3874"),
			},
		},
		{
			Name:  Str("Ervin Howell"),
			Email: Str("Shanna@melissa.tv"),
		},
	}
}

// PlaceholderServer starts a server answering GET /users with status and
// body. It is closed when the test ends.
func PlaceholderServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
