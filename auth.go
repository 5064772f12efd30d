package nativecheckout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TokenIssuer issues facilitator access tokens for a client identifier.
type TokenIssuer interface {
	AccessToken(ctx context.Context, clientID string) (string, error)
}

// TokenIssuerFunc lifts bare functions into [TokenIssuer].
type TokenIssuerFunc func(ctx context.Context, clientID string) (string, error)

// AccessToken issues the token using the wrapped function.
func (f TokenIssuerFunc) AccessToken(ctx context.Context, clientID string) (string, error) {
	return f(ctx, clientID)
}

// AccessTokenClient retrieves facilitator access tokens from the auth API.
type AccessTokenClient struct {
	endpoint string
	client   *http.Client
}

// NewAccessTokenClient builds a token client for the given auth endpoint.
func NewAccessTokenClient(endpoint string, opts ...Option) *AccessTokenClient {
	cfg := newConfig(opts...)
	return &AccessTokenClient{
		endpoint: endpoint,
		client:   cfg.httpClient,
	}
}

type accessTokenRequest struct {
	GrantType string `json:"grant_type"`
	ClientID  string `json:"client_id"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// AccessToken issues a client-credentials token for the given client identifier.
func (c *AccessTokenClient) AccessToken(ctx context.Context, clientID string) (string, error) {
	if clientID == "" {
		return "", NewProcessingError(TokenIssueFailed, "client identifier is required")
	}
	body, err := json.Marshal(accessTokenRequest{
		GrantType: "client_credentials",
		ClientID:  clientID,
	})
	if err != nil {
		return "", fmt.Errorf("nativecheckout: marshal token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("nativecheckout: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", NewProcessingError(TokenIssueFailed, "access token request failed", WithCause(err))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", NewProcessingError(TokenIssueFailed,
			fmt.Sprintf("auth endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))))
	}
	var tokenResp accessTokenResponse
	if err := decodeJSON(resp.Body, &tokenResp); err != nil {
		return "", NewProcessingError(TokenIssueFailed, "decode token response", WithCause(err))
	}
	if tokenResp.AccessToken == "" {
		return "", NewProcessingError(TokenIssueFailed, "auth endpoint returned an empty token")
	}
	return tokenResp.AccessToken, nil
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("response body required")
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
