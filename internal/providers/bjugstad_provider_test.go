package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjugstad/fleetsync/internal/constants"
)

const customersPayload = `[
	{
		"customerId": 42,
		"name": "Veidekke Entreprenør AS",
		"email": "post@example.no",
		"telephoneNumber": "90914271",
		"customerNumber": "10042",
		"contactPersons": [
			{"contactPersonId": "7", "name": "Kari Nordmann", "telephoneNumber": "476 84 728"}
		]
	},
	{
		"customerId": "43",
		"name": "Mesta AS",
		"contactPersons": []
	}
]`

func TestBjugstadProvider_FetchCustomers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GetCustomers", r.URL.Path)
		assert.Equal(t, "primary-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		w.Write([]byte(customersPayload))
	}))
	defer server.Close()

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyBjugstadBaseURL:       server.URL,
		constants.ConfigKeyBjugstadAPIKeyPrimary: "primary-key",
	})

	provider := NewBjugstadProvider(cfg)
	customers, err := provider.FetchCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)

	first := customers[0]
	id, err := first.CustomerID.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NotNil(t, first.Name)
	assert.Equal(t, "Veidekke Entreprenør AS", *first.Name)
	require.Len(t, first.ContactPersons, 1)

	contactID, err := first.ContactPersons[0].ContactPersonID.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), contactID, "string ids decode the same as numeric ones")

	secondID, err := customers[1].CustomerID.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(43), secondID)
}

func TestBjugstadProvider_FallsBackToSecondaryKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secondary-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyBjugstadBaseURL:         server.URL,
		constants.ConfigKeyBjugstadAPIKeySecondary: "secondary-key",
	})

	provider := NewBjugstadProvider(cfg)
	customers, err := provider.FetchCustomers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestBjugstadProvider_MissingBothKeys(t *testing.T) {
	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyBjugstadBaseURL: "https://api.example.com",
	})

	provider := NewBjugstadProvider(cfg)
	_, err := provider.FetchCustomers(context.Background())
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.ErrCodeMissingAPIKey, perr.Code)
}

func TestBjugstadProvider_NonArrayBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"unexpected"}`))
	}))
	defer server.Close()

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyBjugstadBaseURL:       server.URL,
		constants.ConfigKeyBjugstadAPIKeyPrimary: "primary-key",
	})

	provider := NewBjugstadProvider(cfg)
	_, err := provider.FetchCustomers(context.Background())
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.ErrCodeInvalidResponse, perr.Code)
}

func TestBjugstadProvider_UpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("subscription key rejected"))
	}))
	defer server.Close()

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyBjugstadBaseURL:       server.URL,
		constants.ConfigKeyBjugstadAPIKeyPrimary: "expired-key",
	})

	provider := NewBjugstadProvider(cfg)
	_, err := provider.FetchCustomers(context.Background())
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.ErrCodeUpstreamRequest, perr.Code)
	assert.Contains(t, perr.Details, "subscription key rejected")
}
