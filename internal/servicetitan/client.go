// Package servicetitan is a minimal client for the ServiceTitan v2 API,
// covering the surface the scan pipeline needs: job and location reads,
// installed-equipment upserts, job summary updates and photo attachments.
package servicetitan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	ApiBaseUrl  = "https://api.servicetitan.io"
	AuthBaseUrl = "https://auth.servicetitan.io"

	// tokenExpiryBuffer refreshes the OAuth token slightly before the server
	// would reject it.
	tokenExpiryBuffer = 60 * time.Second

	requestTimeout = 30 * time.Second

	// tokenStoreName keys the persisted token in the TokenStore.
	tokenStoreName = "servicetitan"
)

// TokenStore persists the OAuth token between runs so short CLI invocations
// don't burn a token fetch each time. *storage.Store is the real
// implementation; nil disables persistence.
type TokenStore interface {
	GetToken(name string) ([]byte, error)
	SaveToken(name string, value []byte) error
}

type ClientOpts struct {
	BaseURL      string
	AuthURL      string
	TenantID     string
	ClientID     string
	ClientSecret string
	AppKey       string
	TokenStore   TokenStore
}

type Client struct {
	httpClient *resty.Client
	authClient *resty.Client
	tenantID   string
	clientID   string
	secret     string
	appKey     string
	tokenStore TokenStore

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(opts ClientOpts) *Client {
	c := Client{
		tenantID:   opts.TenantID,
		clientID:   opts.ClientID,
		secret:     opts.ClientSecret,
		appKey:     opts.AppKey,
		tokenStore: opts.TokenStore,
	}

	baseURL := ApiBaseUrl
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	authURL := AuthBaseUrl
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
	c.authClient = resty.New().
		SetBaseURL(authURL).
		SetTimeout(requestTimeout)

	return &c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// storedToken is the TokenStore serialization of a fetched token.
type storedToken struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// token returns a valid OAuth access token, fetching a new one via the
// client-credentials grant when the cached one is missing or near expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" {
		c.loadStoredToken()
	}
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryBuffer)) {
		return c.accessToken, nil
	}

	result := &tokenResponse{}
	_, err := handleError(c.authClient.NewRequest().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.secret,
		}).
		SetResult(result).
		Post("/connect/token"))
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	log.Debug().Time("expiry", c.tokenExpiry).Msg("refreshed servicetitan access token")

	c.persistToken()

	return c.accessToken, nil
}

// loadStoredToken pulls a previously persisted token. Called under c.mu.
func (c *Client) loadStoredToken() {
	if c.tokenStore == nil {
		return
	}
	raw, err := c.tokenStore.GetToken(tokenStoreName)
	if err != nil || raw == nil {
		if err != nil {
			log.Warn().Err(err).Msg("failed to load stored servicetitan token")
		}
		return
	}
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Warn().Err(err).Msg("discarding malformed stored servicetitan token")
		return
	}
	c.accessToken = st.AccessToken
	c.tokenExpiry = st.Expiry
}

// persistToken writes the current token. Called under c.mu; best effort.
func (c *Client) persistToken() {
	if c.tokenStore == nil {
		return
	}
	raw, err := json.Marshal(storedToken{AccessToken: c.accessToken, Expiry: c.tokenExpiry})
	if err != nil {
		return
	}
	if err := c.tokenStore.SaveToken(tokenStoreName, raw); err != nil {
		log.Warn().Err(err).Msg("failed to persist servicetitan token")
	}
}

func (c *Client) req(ctx context.Context, result any) (*resty.Request, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("ST-App-Key", c.appKey).
		SetPathParam("tenant", c.tenantID)

	if result != nil {
		request.SetResult(result)
	}

	return request, nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
