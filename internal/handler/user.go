package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/josh-kwaku/user-directory/internal/domain"
	"github.com/josh-kwaku/user-directory/internal/logging"
	"github.com/josh-kwaku/user-directory/internal/store"
)

type userDirectory interface {
	FetchAll(ctx context.Context) error
	SetSearch(query string)
	CreateUser(fields domain.UserFields) string
	UpdateUser(id string, patch domain.UserFields) bool
	DeleteUser(id string) bool
	Filtered() []domain.User
	ByID(id string) (domain.User, bool)
	Snapshot() store.Snapshot
}

type UserHandler struct {
	users userDirectory
}

func NewUserHandler(users userDirectory) *UserHandler {
	return &UserHandler{users: users}
}

type companyRequest struct {
	Name *string `json:"name"`
}

type addressRequest struct {
	Street  *string `json:"street"`
	Suite   *string `json:"suite"`
	City    *string `json:"city"`
	Zipcode *string `json:"zipcode"`
}

type userRequest struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email"`
	Phone   *string         `json:"phone"`
	Website *string         `json:"website"`
	Company *companyRequest `json:"company"`
	Address *addressRequest `json:"address"`
}

// Validate applies the directory form rules. On create, name and email are
// required; on update they are checked only when present.
func (r userRequest) Validate(create bool) []FieldError {
	var errs []FieldError

	switch {
	case r.Name == nil && create:
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	case r.Name != nil && strings.TrimSpace(*r.Name) == "":
		errs = append(errs, FieldError{Field: "name", Message: "must not be blank"})
	}

	switch {
	case r.Email == nil && create:
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	case r.Email != nil && strings.TrimSpace(*r.Email) == "":
		errs = append(errs, FieldError{Field: "email", Message: "must not be blank"})
	case r.Email != nil && !validEmail(strings.TrimSpace(*r.Email)):
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}

	return errs
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// toFields trims every present value, as the directory form does before
// submitting.
func (r userRequest) toFields() domain.UserFields {
	f := domain.UserFields{
		Name:    trimmed(r.Name),
		Email:   trimmed(r.Email),
		Phone:   trimmed(r.Phone),
		Website: trimmed(r.Website),
	}
	if r.Company != nil {
		f.Company = &domain.CompanyFields{Name: trimmed(r.Company.Name)}
	}
	if r.Address != nil {
		f.Address = &domain.AddressFields{
			Street:  trimmed(r.Address.Street),
			Suite:   trimmed(r.Address.Suite),
			City:    trimmed(r.Address.City),
			Zipcode: trimmed(r.Address.Zipcode),
		}
	}
	return f
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

type searchRequest struct {
	Query *string `json:"query"`
}

type companyDTO struct {
	Name string `json:"name"`
}

type addressDTO struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

type userDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Website string     `json:"website"`
	Company companyDTO `json:"company"`
	Address addressDTO `json:"address"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Website: u.Website,
		Company: companyDTO{Name: u.Company.Name},
		Address: addressDTO{
			Street:  u.Address.Street,
			Suite:   u.Address.Suite,
			City:    u.Address.City,
			Zipcode: u.Address.Zipcode,
		},
	}
}

type stateDTO struct {
	Status string  `json:"status"`
	Error  *string `json:"error"`
	Search string  `json:"search"`
	Count  int     `json:"count"`
}

func toStateDTO(s store.Snapshot) stateDTO {
	dto := stateDTO{
		Status: string(s.Status),
		Search: s.Search,
		Count:  len(s.Items),
	}
	if s.Error != "" {
		dto.Error = &s.Error
	}
	return dto
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.users.Filtered()

	dtos := make([]userDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(users[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.users.ByID(r.PathValue("id"))
	if !ok {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(true); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	id := h.users.CreateUser(req.toFields())
	logging.FromContext(r.Context()).Info("user created", "user_id", id)

	user, ok := h.users.ByID(id)
	if !ok {
		// Deleted by a concurrent request before we could read it back.
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(false); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if !h.users.UpdateUser(id, req.toFields()) {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}
	logging.FromContext(r.Context()).Info("user updated", "user_id", id)

	user, ok := h.users.ByID(id)
	if !ok {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !h.users.DeleteUser(id) {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}
	logging.FromContext(r.Context()).Info("user deleted", "user_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// Refresh reloads the directory from the placeholder API. The fetch is
// detached from the request so a disconnecting client does not cancel it.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	if err := h.users.FetchAll(ctx); err != nil {
		logging.FromContext(ctx).Error("failed to refresh directory", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toStateDTO(h.users.Snapshot()))
}

func (h *UserHandler) State(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, toStateDTO(h.users.Snapshot()))
}

func (h *UserHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if req.Query == nil {
		RespondValidationError(w, []FieldError{{Field: "query", Message: "required"}})
		return
	}

	h.users.SetSearch(*req.Query)

	RespondSuccess(w, http.StatusOK, toStateDTO(h.users.Snapshot()))
}
