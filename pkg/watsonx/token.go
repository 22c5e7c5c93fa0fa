package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	apiKeyGrant = "urn:ibm:params:oauth:grant-type:apikey"

	// iamTimeout bounds a single token exchange.
	iamTimeout = 10 * time.Second
)

// TokenProvider hands out bearer tokens for the deployment. Refresh discards
// any cached token and fetches a new one.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// IAMTokenSource exchanges an IBM Cloud API key for IAM access tokens and
// caches them until shortly before they expire.
type IAMTokenSource struct {
	authURL    string
	httpClient *http.Client

	mu     sync.Mutex
	apiKey string
	cached oauth2.TokenSource
}

// NewIAMTokenSource creates a token source for apiKey against authURL.
// A nil httpClient uses http.DefaultClient.
func NewIAMTokenSource(authURL, apiKey string, httpClient *http.Client) *IAMTokenSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &IAMTokenSource{
		authURL:    authURL,
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(apiKey),
	}
}

// SetAPIKey swaps the API key and drops the cached token.
func (s *IAMTokenSource) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(apiKey)
	s.cached = nil
}

func (s *IAMTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.apiKey == "" {
		s.mu.Unlock()
		return "", ErrMissingAPIKey
	}
	if s.cached == nil {
		s.cached = oauth2.ReuseTokenSource(nil, &iamFetcher{
			authURL:    s.authURL,
			apiKey:     s.apiKey,
			httpClient: s.httpClient,
		})
	}
	src := s.cached
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (s *IAMTokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	return s.Token(ctx)
}

// iamFetcher performs one token exchange per call; ReuseTokenSource decides
// when a new one is needed.
type iamFetcher struct {
	authURL    string
	apiKey     string
	httpClient *http.Client
}

type iamResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

func (f *iamFetcher) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), iamTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", apiKeyGrant)
	form.Set("apikey", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating IAM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting IAM token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading IAM response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out iamResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding IAM response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("IAM response carried no access_token")
	}

	tok := &oauth2.Token{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
	}
	switch {
	case out.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	case out.Expiration > 0:
		tok.Expiry = time.Unix(out.Expiration, 0)
	}
	return tok, nil
}
