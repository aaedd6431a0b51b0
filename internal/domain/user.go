package domain

// User is a directory record. Every field is always populated; the empty
// string means unset.
type User struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Website string
	Company Company
	Address Address
}

type Company struct {
	Name string
}

type Address struct {
	Street  string
	Suite   string
	City    string
	Zipcode string
}

// UserFields is a partial user. A nil field is absent.
type UserFields struct {
	ID      *string
	Name    *string
	Email   *string
	Phone   *string
	Website *string
	Company *CompanyFields
	Address *AddressFields
}

type CompanyFields struct {
	Name *string
}

type AddressFields struct {
	Street  *string
	Suite   *string
	City    *string
	Zipcode *string
}

// Normalize builds a full User from f, defaulting every absent field to the
// empty string. newID is called only when f carries no id.
func Normalize(f UserFields, newID func() string) User {
	u := User{
		Name:    deref(f.Name),
		Email:   deref(f.Email),
		Phone:   deref(f.Phone),
		Website: deref(f.Website),
	}

	if f.ID != nil {
		u.ID = *f.ID
	} else {
		u.ID = newID()
	}

	if f.Company != nil {
		u.Company.Name = deref(f.Company.Name)
	}

	if f.Address != nil {
		u.Address = Address{
			Street:  deref(f.Address.Street),
			Suite:   deref(f.Address.Suite),
			City:    deref(f.Address.City),
			Zipcode: deref(f.Address.Zipcode),
		}
	}

	return u
}

// Fields returns u as fully populated UserFields.
func (u User) Fields() UserFields {
	return UserFields{
		ID:      ptr(u.ID),
		Name:    ptr(u.Name),
		Email:   ptr(u.Email),
		Phone:   ptr(u.Phone),
		Website: ptr(u.Website),
		Company: &CompanyFields{Name: ptr(u.Company.Name)},
		Address: &AddressFields{
			Street:  ptr(u.Address.Street),
			Suite:   ptr(u.Address.Suite),
			City:    ptr(u.Address.City),
			Zipcode: ptr(u.Address.Zipcode),
		},
	}
}

// Merge overlays the present fields of patch onto u and re-normalizes.
// Company and Address are replaced wholesale. The id of u is kept.
func (u User) Merge(patch UserFields) User {
	merged := u.Fields()

	if patch.Name != nil {
		merged.Name = patch.Name
	}
	if patch.Email != nil {
		merged.Email = patch.Email
	}
	if patch.Phone != nil {
		merged.Phone = patch.Phone
	}
	if patch.Website != nil {
		merged.Website = patch.Website
	}
	if patch.Company != nil {
		merged.Company = patch.Company
	}
	if patch.Address != nil {
		merged.Address = patch.Address
	}

	return Normalize(merged, func() string { return u.ID })
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
