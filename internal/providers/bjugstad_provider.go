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
)

// BjugstadContactPerson is one contact person as the customer API returns it.
type BjugstadContactPerson struct {
	ContactPersonID json.Number `json:"contactPersonId"`
	Name            *string     `json:"name"`
	TelephoneNumber *string     `json:"telephoneNumber"`
	Email           *string     `json:"email"`
}

// BjugstadCustomer is one customer as the customer API returns it. Ids come
// back as numbers or numeric strings depending on endpoint version, hence
// json.Number.
type BjugstadCustomer struct {
	CustomerID         json.Number             `json:"customerId"`
	Name               *string                 `json:"name"`
	Email              *string                 `json:"email"`
	Address            *string                 `json:"address"`
	PostalCode         *string                 `json:"postalCode"`
	City               *string                 `json:"city"`
	Contact            *string                 `json:"contact"`
	TelephoneNumber    *string                 `json:"telephoneNumber"`
	OrganizationNumber *string                 `json:"organizationNumber"`
	CustomerNumber     json.Number             `json:"customerNumber"`
	ContactPersons     []BjugstadContactPerson `json:"contactPersons"`
}

// BjugstadProvider fetches the full business-customer list. Auth is a
// static subscription key, primary falling back to secondary, both served
// through the config resolver.
type BjugstadProvider struct {
	cfg *config.Resolver

	limiter *rate.Limiter

	mu      sync.Mutex
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewBjugstadProvider(cfg *config.Resolver) *BjugstadProvider {
	return &BjugstadProvider{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}
}

func (p *BjugstadProvider) Name() string { return "bjugstad" }

func (p *BjugstadProvider) httpClient(ctx context.Context) (*http.Client, string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, p.baseURL, p.apiKey, nil
	}

	baseURL, err := p.cfg.Require(ctx, constants.ConfigKeyBjugstadBaseURL)
	if err != nil {
		return nil, "", "", err
	}

	apiKey := p.cfg.Optional(ctx, constants.ConfigKeyBjugstadAPIKeyPrimary)
	if apiKey == nil || strings.TrimSpace(*apiKey) == "" {
		apiKey = p.cfg.Optional(ctx, constants.ConfigKeyBjugstadAPIKeySecondary)
	}
	if apiKey == nil || strings.TrimSpace(*apiKey) == "" {
		return nil, "", "", &ProviderError{
			Code: constants.ErrCodeMissingAPIKey,
			Message: fmt.Sprintf("%s or %s must be configured",
				constants.ConfigKeyBjugstadAPIKeyPrimary,
				constants.ConfigKeyBjugstadAPIKeySecondary),
		}
	}

	p.client = &http.Client{Timeout: 20 * time.Second}
	p.baseURL = strings.TrimRight(baseURL, "/")
	p.apiKey = strings.TrimSpace(*apiKey)
	return p.client, p.baseURL, p.apiKey, nil
}

// FetchCustomers returns the flat customer list. There is no pagination on
// this endpoint; a non-array body is a run-level error.
func (p *BjugstadProvider) FetchCustomers(ctx context.Context) ([]BjugstadCustomer, error) {
	client, baseURL, apiKey, err := p.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := baseURL + "/GetCustomers"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProviderError{Code: constants.ErrCodeNetworkError, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", apiKey)
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

	var customers []BjugstadCustomer
	if err := json.Unmarshal(body, &customers); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidResponse,
			Message: "GetCustomers did not return an array",
			Err:     err,
		}
	}

	logging.Info("customer fetch complete", "provider", p.Name(), "customers", len(customers))
	return customers, nil
}
