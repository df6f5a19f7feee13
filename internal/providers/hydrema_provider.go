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

	"golang.org/x/time/rate"

	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/models/entities"
)

// Hydrema machine API. Page-numbered listing (/machines/{page}), envelope
// varies between deployments: a bare array, {"data": [...]} or
// {"items": [...]}, optionally with an explicit nextPage number. Field
// names drift across firmware versions, so mapping goes through the
// candidate-key extractors in fieldmap.go.

type hydremaEnvelope struct {
	Data     []map[string]interface{} `json:"data"`
	Items    []map[string]interface{} `json:"items"`
	NextPage *int                     `json:"nextPage"`
}

// HydremaProvider fetches the Hydrema machine list with last-known
// positions (geo=true).
type HydremaProvider struct {
	cfg    *config.Resolver
	tokens *OAuthTokenSource

	limiter *rate.Limiter

	mu      sync.Mutex
	client  *http.Client
	baseURL string
}

func NewHydremaProvider(cfg *config.Resolver) *HydremaProvider {
	return &HydremaProvider{
		cfg: cfg,
		tokens: NewOAuthTokenSource(cfg, "hydrema",
			constants.ConfigKeyHydremaTokenURL,
			constants.ConfigKeyHydremaClientID,
			constants.ConfigKeyHydremaClientSecret,
		),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

func (p *HydremaProvider) Name() string { return "hydrema" }

func (p *HydremaProvider) httpClient(ctx context.Context) (*http.Client, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, p.baseURL, nil
	}

	baseURL, err := p.cfg.Require(ctx, constants.ConfigKeyHydremaBaseURL)
	if err != nil {
		return nil, "", err
	}

	p.client = &http.Client{Timeout: 20 * time.Second}
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p.client, p.baseURL, nil
}

// FetchAll pages through /machines/{page} until a page comes back empty or
// the safety cap is reached. Items without any id candidate are dropped.
func (p *HydremaProvider) FetchAll(ctx context.Context) ([]entities.MachineRow, error) {
	client, baseURL, err := p.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	maxPages := p.cfg.MaxPages(ctx)
	out := make([]entities.MachineRow, 0, 64)

	page := 1
	for pages := 0; ; pages++ {
		if pages >= maxPages {
			logging.Warn("pagination safety break", "provider", p.Name(), "pages", maxPages)
			break
		}

		url := fmt.Sprintf("%s/machines/%d?geo=true", baseURL, page)

		env, err := p.getPage(ctx, client, url)
		if err != nil {
			return nil, err
		}

		items := env.items()
		if len(items) == 0 {
			break
		}

		for _, raw := range items {
			if row, ok := mapHydremaMachine(raw); ok {
				out = append(out, row)
			}
		}

		next := page + 1
		if env.NextPage != nil {
			next = *env.NextPage
		}
		// A next pointer that does not advance would loop forever; the
		// page cap still bounds it, but bail out early.
		if next <= page {
			logging.Warn("non-advancing next page, stopping",
				"provider", p.Name(), "page", page, "next", next)
			break
		}
		page = next
	}

	logging.Info("fleet fetch complete", "provider", p.Name(), "machines", len(out))
	return out, nil
}

func (p *HydremaProvider) getPage(ctx context.Context, client *http.Client, url string) (*hydremaEnvelope, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProviderError{Code: constants.ErrCodeNetworkError, Message: "failed to build request", Err: err}
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("GET %s failed", url),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &ProviderError{Code: constants.ErrCodeNetworkError, Message: "failed to read response body", Err: readErr}
	}

	if resp.StatusCode >= 400 {
		return nil, &ProviderError{
			Code:    constants.ErrCodeUpstreamRequest,
			Message: fmt.Sprintf("GET %s -> %d", url, resp.StatusCode),
			Details: string(body),
		}
	}

	return decodeHydremaEnvelope(body)
}

// decodeHydremaEnvelope accepts either a bare JSON array of machines or an
// object wrapping them under data/items.
func decodeHydremaEnvelope(body []byte) (*hydremaEnvelope, error) {
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]interface{}
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, &ProviderError{
				Code:    constants.ErrCodeInvalidResponse,
				Message: "machines response is not a decodable array",
				Err:     err,
			}
		}
		return &hydremaEnvelope{Items: items}, nil
	}

	var env hydremaEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidResponse,
			Message: "machines response is not a decodable envelope",
			Err:     err,
		}
	}
	return &env, nil
}

func (e *hydremaEnvelope) items() []map[string]interface{} {
	if len(e.Data) > 0 {
		return e.Data
	}
	return e.Items
}

// mapHydremaMachine maps one raw machine object. The id is required under
// one of the candidate keys; everything else defaults to null.
func mapHydremaMachine(raw map[string]interface{}) (entities.MachineRow, bool) {
	id := stringField(raw, "id", "Id", "ID", "machineId")
	if id == nil {
		return entities.MachineRow{}, false
	}

	name := stringField(raw, "name", "machineName", "displayName")
	if name == nil {
		name = id
	}

	oem := stringField(raw, "oemName", "oem", "manufacturer")
	if oem == nil {
		def := "Hydrema"
		oem = &def
	}

	row := entities.MachineRow{
		ID:      fmt.Sprintf("%s:%s", constants.OEMPrefixHydrema, *id),
		Name:    name,
		OEMName: oem,
	}

	if geo := objectField(raw, "geo", "position", "lastPosition"); geo != nil {
		row.LastPosReportedAt = timeField(geo, "time", "timestamp", "reportedAt")
		row.LastPosLatitude = numberField(geo, "latitude", "lat")
		row.LastPosLongitude = numberField(geo, "longitude", "lng", "lon")
	}

	return row, true
}
