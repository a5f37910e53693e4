package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	t.Run("creates address with required fields", func(t *testing.T) {
		addr, err := NewAddress("Jane Miller", "12 Harbor St", "Portland", "OR", "97201", "US")
		require.NoError(t, err)
		assert.Equal(t, "Jane Miller", addr.ContactName())
		assert.Equal(t, "12 Harbor St", addr.Line1())
		assert.Equal(t, "Portland", addr.City())
		assert.Equal(t, "OR", addr.State())
		assert.Equal(t, "97201", addr.PostalCode())
		assert.Equal(t, "US", addr.Country())
		assert.Empty(t, addr.Line2())
	})

	t.Run("applies options", func(t *testing.T) {
		addr, err := NewAddress("Jane Miller", "12 Harbor St", "Portland", "OR", "97201", "US",
			WithLine2("Apt 4B"), WithContactPhone("5035550142"))
		require.NoError(t, err)
		assert.Equal(t, "Apt 4B", addr.Line2())
		assert.Equal(t, "5035550142", addr.ContactPhone())
	})

	t.Run("trims whitespace", func(t *testing.T) {
		addr, err := NewAddress("  Jane  ", " 12 Harbor St ", " Portland ", " OR ", " 97201 ", " US ")
		require.NoError(t, err)
		assert.Equal(t, "Jane", addr.ContactName())
		assert.Equal(t, "12 Harbor St", addr.Line1())
	})

	tests := []struct {
		name    string
		contact string
		line1   string
		city    string
		state   string
		postal  string
		country string
		wantErr string
	}{
		{"missing contact name", "", "12 Harbor St", "Portland", "OR", "97201", "US", "contact name is required"},
		{"missing line1", "Jane", "", "Portland", "OR", "97201", "US", "address line 1 is required"},
		{"missing city", "Jane", "12 Harbor St", "", "OR", "97201", "US", "city is required"},
		{"missing state", "Jane", "12 Harbor St", "Portland", "", "97201", "US", "state is required"},
		{"missing postal code", "Jane", "12 Harbor St", "Portland", "OR", "", "US", "postal code is required"},
		{"missing country", "Jane", "12 Harbor St", "Portland", "OR", "97201", "", "country is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAddress(tt.contact, tt.line1, tt.city, tt.state, tt.postal, tt.country)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddressString(t *testing.T) {
	addr, err := NewAddress("Jane", "12 Harbor St", "Portland", "OR", "97201", "US", WithLine2("Apt 4B"))
	require.NoError(t, err)
	assert.Equal(t, "12 Harbor St, Apt 4B, Portland, OR, 97201, US", addr.String())
}

func TestAddressIsZero(t *testing.T) {
	var zero Address
	assert.True(t, zero.IsZero())

	addr, _ := NewAddress("Jane", "12 Harbor St", "Portland", "OR", "97201", "US")
	assert.False(t, addr.IsZero())
}

func TestAddressJSONRoundTrip(t *testing.T) {
	addr, err := NewAddress("Jane", "12 Harbor St", "Portland", "OR", "97201", "US",
		WithLine2("Apt 4B"), WithContactPhone("5035550142"))
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, addr.Equals(decoded))
}

func TestAddressScanValue(t *testing.T) {
	t.Run("value then scan restores address", func(t *testing.T) {
		addr, _ := NewAddress("Jane", "12 Harbor St", "Portland", "OR", "97201", "US")
		v, err := addr.Value()
		require.NoError(t, err)

		var decoded Address
		require.NoError(t, decoded.Scan(v))
		assert.True(t, addr.Equals(decoded))
	})

	t.Run("zero address stores NULL", func(t *testing.T) {
		var zero Address
		v, err := zero.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("scans nil as zero", func(t *testing.T) {
		var decoded Address
		require.NoError(t, decoded.Scan(nil))
		assert.True(t, decoded.IsZero())
	})
}
