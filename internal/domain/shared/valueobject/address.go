package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is an immutable value object for shipping and billing addresses.
// Orders embed two of them as JSONB snapshots so later edits to a
// customer's saved addresses never rewrite placed orders.
type Address struct {
	contactName  string
	contactPhone string
	line1        string
	line2        string
	city         string
	state        string
	postalCode   string
	country      string
}

// AddressOption is a functional option for optional address fields
type AddressOption func(*Address)

// WithLine2 sets the secondary address line (apartment, suite)
func WithLine2(line2 string) AddressOption {
	return func(a *Address) {
		a.line2 = strings.TrimSpace(line2)
	}
}

// WithContactPhone sets the contact phone number
func WithContactPhone(phone string) AddressOption {
	return func(a *Address) {
		a.contactPhone = strings.TrimSpace(phone)
	}
}

// NewAddress creates an Address. Contact name, line1, city, state, postal
// code and country are required.
func NewAddress(contactName, line1, city, state, postalCode, country string, opts ...AddressOption) (Address, error) {
	addr := Address{
		contactName: strings.TrimSpace(contactName),
		line1:       strings.TrimSpace(line1),
		city:        strings.TrimSpace(city),
		state:       strings.TrimSpace(state),
		postalCode:  strings.TrimSpace(postalCode),
		country:     strings.TrimSpace(country),
	}
	for _, opt := range opts {
		opt(&addr)
	}

	if addr.contactName == "" {
		return Address{}, errors.New("contact name is required")
	}
	if len(addr.contactName) > 255 {
		return Address{}, errors.New("contact name must not exceed 255 characters")
	}
	if addr.line1 == "" {
		return Address{}, errors.New("address line 1 is required")
	}
	if len(addr.line1) > 255 {
		return Address{}, errors.New("address line 1 must not exceed 255 characters")
	}
	if addr.city == "" {
		return Address{}, errors.New("city is required")
	}
	if addr.state == "" {
		return Address{}, errors.New("state is required")
	}
	if addr.postalCode == "" {
		return Address{}, errors.New("postal code is required")
	}
	if len(addr.postalCode) > 20 {
		return Address{}, errors.New("postal code must not exceed 20 characters")
	}
	if addr.country == "" {
		return Address{}, errors.New("country is required")
	}
	return addr, nil
}

// ContactName returns the recipient name
func (a Address) ContactName() string { return a.contactName }

// ContactPhone returns the recipient phone, empty if unset
func (a Address) ContactPhone() string { return a.contactPhone }

// Line1 returns the primary street line
func (a Address) Line1() string { return a.line1 }

// Line2 returns the secondary street line, empty if unset
func (a Address) Line2() string { return a.line2 }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the state or province
func (a Address) State() string { return a.state }

// PostalCode returns the postal code
func (a Address) PostalCode() string { return a.postalCode }

// Country returns the country
func (a Address) Country() string { return a.country }

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == Address{}
}

// Equals returns true when all fields match
func (a Address) Equals(other Address) bool {
	return a == other
}

// String returns a single-line human-readable form
func (a Address) String() string {
	parts := []string{a.line1}
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	parts = append(parts, a.city, a.state, a.postalCode, a.country)
	return strings.Join(parts, ", ")
}

type addressJSON struct {
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Line1        string `json:"line1"`
	Line2        string `json:"line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		ContactName:  a.contactName,
		ContactPhone: a.contactPhone,
		Line1:        a.line1,
		Line2:        a.line2,
		City:         a.city,
		State:        a.state,
		PostalCode:   a.postalCode,
		Country:      a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	a.contactName = v.ContactName
	a.contactPhone = v.ContactPhone
	a.line1 = v.Line1
	a.line2 = v.Line2
	a.city = v.City
	a.state = v.State
	a.postalCode = v.PostalCode
	a.country = v.Country
	return nil
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return a.UnmarshalJSON(data)
}
