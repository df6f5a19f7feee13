package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjugstad/fleetsync/internal/common"
	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
)

func testResolver(t *testing.T, env map[string]string) *config.Resolver {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	return config.NewResolver(common.NewCacheService(60), nil)
}

func catTokenHandler(t *testing.T, tokenRequests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*tokenRequests++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "cat-client/fleet.read", r.Form.Get("scope"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "cat-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}
}

func TestCatProvider_FetchAll_PaginatesViaLinks(t *testing.T) {
	tokenRequests := 0

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/token", catTokenHandler(t, &tokenRequests))

	mux.HandleFunc("/fleet/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cat-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Cat-API-Tracking-Id"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"Links": []map[string]string{
				{"Rel": "self", "Href": "/fleet/1"},
				{"Rel": "Next", "Href": "/fleet/2"},
			},
			"Equipment": []map[string]interface{}{
				{
					"EquipmentHeader": map[string]interface{}{
						"OEMName":      "Caterpillar",
						"Model":        "320GC",
						"EquipmentID":  "EQ-1",
						"SerialNumber": "SN-1",
					},
					"Location": map[string]interface{}{
						"Latitude":  59.91,
						"Longitude": 10.75,
						"Datetime":  "2026-02-10T08:30:00Z",
					},
				},
				{
					// No identifiers at all, must be dropped silently.
					"EquipmentHeader": map[string]interface{}{"Model": "ghost"},
				},
			},
		})
	})

	mux.HandleFunc("/fleet/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Links": []map[string]string{},
			"Equipment": []map[string]interface{}{
				{
					"EquipmentHeader": map[string]interface{}{
						"SerialNumber": "SN-2",
					},
					// No location reported this cycle.
				},
			},
		})
	})

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyCatBaseURL:      server.URL,
		constants.ConfigKeyCatTokenURL:     server.URL + "/token",
		constants.ConfigKeyCatClientID:     "cat-client",
		constants.ConfigKeyCatClientSecret: "cat-secret",
		constants.ConfigKeyCatScope:        "fleet.read",
	})

	provider := NewCatProvider(cfg)
	rows, err := provider.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, tokenRequests, "token must be fetched once and reused")

	first := rows[0]
	assert.Equal(t, "CAT:EQ-1", first.ID)
	require.NotNil(t, first.Name)
	assert.Equal(t, "320GC", *first.Name)
	require.NotNil(t, first.OEMName)
	assert.Equal(t, "Caterpillar", *first.OEMName)
	require.NotNil(t, first.LastPosReportedAt)
	assert.Equal(t, "2026-02-10T08:30:00Z", first.LastPosReportedAt.Format("2006-01-02T15:04:05Z"))
	require.NotNil(t, first.LastPosLatitude)
	assert.InDelta(t, 59.91, *first.LastPosLatitude, 1e-9)

	second := rows[1]
	assert.Equal(t, "CAT:SN-2", second.ID)
	require.NotNil(t, second.Name)
	assert.Equal(t, "SN-2", *second.Name, "name falls back to serial number")
	require.NotNil(t, second.OEMName)
	assert.Equal(t, "CAT", *second.OEMName, "oem falls back to the namespace")
	assert.Nil(t, second.LastPosReportedAt)
	assert.False(t, second.HasPosition())
}

func TestCatProvider_FetchAll_PageCapBreaksLinkLoops(t *testing.T) {
	tokenRequests := 0
	fleetRequests := 0

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/token", catTokenHandler(t, &tokenRequests))

	// Every page points back at page 1: a pagination cycle.
	mux.HandleFunc("/fleet/1", func(w http.ResponseWriter, r *http.Request) {
		fleetRequests++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Links": []map[string]string{{"Rel": "next", "Href": "/fleet/1"}},
			"Equipment": []map[string]interface{}{
				{"EquipmentHeader": map[string]interface{}{"EquipmentID": "EQ-1"}},
			},
		})
	})

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyCatBaseURL:      server.URL,
		constants.ConfigKeyCatTokenURL:     server.URL + "/token",
		constants.ConfigKeyCatClientID:     "cat-client",
		constants.ConfigKeyCatClientSecret: "cat-secret",
		constants.ConfigKeyCatScope:        "fleet.read",
		constants.ConfigKeySyncMaxPages:    "3",
	})

	provider := NewCatProvider(cfg)
	rows, err := provider.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, fleetRequests)
	assert.Len(t, rows, 3)
}

func TestCatProvider_FetchAll_TokenRejection(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})

	cfg := testResolver(t, map[string]string{
		constants.ConfigKeyCatBaseURL:      server.URL,
		constants.ConfigKeyCatTokenURL:     server.URL + "/token",
		constants.ConfigKeyCatClientID:     "cat-client",
		constants.ConfigKeyCatClientSecret: "bad-secret",
		constants.ConfigKeyCatScope:        "fleet.read",
	})

	provider := NewCatProvider(cfg)
	_, err := provider.FetchAll(context.Background())
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.ErrCodeUpstreamAuth, perr.Code)
	assert.Contains(t, perr.Details, "invalid_client")
	assert.True(t, IsAuthError(err))
}

func TestCatProvider_FetchAll_MissingConfig(t *testing.T) {
	cfg := testResolver(t, nil)

	provider := NewCatProvider(cfg)
	_, err := provider.FetchAll(context.Background())

	var missing *config.MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, constants.ConfigKeyCatBaseURL, missing.Name)
}

func TestNextFromLinks(t *testing.T) {
	base := "https://api.example.com/aemp"

	tests := []struct {
		name  string
		links []catLink
		want  string
	}{
		{"no links", nil, ""},
		{"no next", []catLink{{Rel: "self", Href: "/fleet/1"}}, ""},
		{"relative next", []catLink{{Rel: "next", Href: "/fleet/2"}}, base + "/fleet/2"},
		{"absolute next", []catLink{{Rel: "next", Href: "https://other.example.com/fleet/2"}}, "https://other.example.com/fleet/2"},
		{"case insensitive rel", []catLink{{Rel: "Next", Href: "fleet/2"}}, base + "/fleet/2"},
		{"empty href next", []catLink{{Rel: "next", Href: ""}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextFromLinks(tt.links, base))
		})
	}
}
