package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/models/entities"
)

// CAT fleet snapshot API (ISO 15143 / AEMP 2.0). PascalCase envelope,
// pagination advertised through a Links array with Rel="next".

type catEquipmentHeader struct {
	OEMName      string `json:"OEMName"`
	Model        string `json:"Model"`
	EquipmentID  string `json:"EquipmentID"`
	SerialNumber string `json:"SerialNumber"`
}

type catLocation struct {
	Latitude  *float64 `json:"Latitude"`
	Longitude *float64 `json:"Longitude"`
	Datetime  string   `json:"Datetime"`
}

type catEquipment struct {
	EquipmentHeader *catEquipmentHeader `json:"EquipmentHeader"`
	Location        *catLocation        `json:"Location"`
}

type catLink struct {
	Rel  string `json:"Rel"`
	Href string `json:"Href"`
}

type catFleetPage struct {
	Links     []catLink      `json:"Links"`
	Equipment []catEquipment `json:"Equipment"`
}

// CatProvider fetches the CAT fleet snapshot. Token, base URL and HTTP
// client are resolved lazily on first use and memoized for the process
// lifetime.
type CatProvider struct {
	cfg    *config.Resolver
	tokens *OAuthTokenSource

	limiter *rate.Limiter

	mu      sync.Mutex
	client  *http.Client
	baseURL string
}

func NewCatProvider(cfg *config.Resolver) *CatProvider {
	return &CatProvider{
		cfg: cfg,
		tokens: NewOAuthTokenSource(cfg, "cat",
			constants.ConfigKeyCatTokenURL,
			constants.ConfigKeyCatClientID,
			constants.ConfigKeyCatClientSecret,
		).WithScope(constants.ConfigKeyCatScope, true),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

func (p *CatProvider) Name() string { return "cat" }

func (p *CatProvider) httpClient(ctx context.Context) (*http.Client, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, p.baseURL, nil
	}

	baseURL, err := p.cfg.Require(ctx, constants.ConfigKeyCatBaseURL)
	if err != nil {
		return nil, "", err
	}

	p.client = &http.Client{Timeout: 25 * time.Second}
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p.client, p.baseURL, nil
}

// FetchAll walks every fleet page and maps equipment to the common row
// shape. Entries without EquipmentID and SerialNumber are dropped.
func (p *CatProvider) FetchAll(ctx context.Context) ([]entities.MachineRow, error) {
	client, baseURL, err := p.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	maxPages := p.cfg.MaxPages(ctx)
	out := make([]entities.MachineRow, 0, 64)

	pageURL := baseURL + "/fleet/1"
	for page := 1; pageURL != ""; page++ {
		if page > maxPages {
			logging.Warn("pagination safety break", "provider", p.Name(), "pages", maxPages)
			break
		}

		var fleet catFleetPage
		if err := p.getJSON(ctx, client, pageURL, &fleet); err != nil {
			return nil, err
		}

		for _, raw := range fleet.Equipment {
			if row, ok := p.mapEquipment(raw); ok {
				out = append(out, row)
			}
		}

		pageURL = nextFromLinks(fleet.Links, baseURL)
	}

	logging.Info("fleet fetch complete", "provider", p.Name(), "machines", len(out))
	return out, nil
}

func (p *CatProvider) getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &ProviderError{Code: constants.ErrCodeNetworkError, Message: "failed to build request", Err: err}
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	// Unique ID per request, required by the CAT API gateway for tracing.
	req.Header.Set("X-Cat-API-Tracking-Id", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("GET %s failed", url),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return &ProviderError{Code: constants.ErrCodeNetworkError, Message: "failed to read response body", Err: readErr}
	}

	if resp.StatusCode >= 400 {
		return &ProviderError{
			Code:    constants.ErrCodeUpstreamRequest,
			Message: fmt.Sprintf("GET %s -> %d", url, resp.StatusCode),
			Details: string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidResponse,
			Message: fmt.Sprintf("GET %s returned undecodable JSON", url),
			Err:     err,
		}
	}
	return nil
}

// mapEquipment maps one AEMP equipment entry. Name preference: model, then
// serial number, then native equipment id.
func (p *CatProvider) mapEquipment(e catEquipment) (entities.MachineRow, bool) {
	h := e.EquipmentHeader
	if h == nil {
		return entities.MachineRow{}, false
	}

	key := h.EquipmentID
	if key == "" {
		key = h.SerialNumber
	}
	if key == "" {
		// Require at least one identifier to avoid junk rows
		return entities.MachineRow{}, false
	}

	name := h.Model
	if name == "" {
		name = h.SerialNumber
	}
	if name == "" {
		name = key
	}

	oem := h.OEMName
	if oem == "" {
		oem = constants.OEMPrefixCat
	}

	row := entities.MachineRow{
		ID:      fmt.Sprintf("%s:%s", constants.OEMPrefixCat, key),
		Name:    &name,
		OEMName: &oem,
	}

	if loc := e.Location; loc != nil {
		if loc.Datetime != "" {
			if ts, err := time.Parse(time.RFC3339, loc.Datetime); err == nil {
				utc := ts.UTC()
				row.LastPosReportedAt = &utc
			}
		}
		row.LastPosLatitude = loc.Latitude
		row.LastPosLongitude = loc.Longitude
	}

	return row, true
}

// nextFromLinks finds the rel=next href, resolving relative hrefs against
// the base URL. Returns "" when there is no next page.
func nextFromLinks(links []catLink, baseURL string) string {
	for _, l := range links {
		if !strings.EqualFold(l.Rel, "next") {
			continue
		}
		if l.Href == "" {
			return ""
		}
		if strings.HasPrefix(l.Href, "http") {
			return l.Href
		}
		return baseURL + "/" + strings.TrimLeft(l.Href, "/")
	}
	return ""
}
