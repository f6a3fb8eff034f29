package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// maxAttempts bounds transient-failure retries per logical call.
	maxAttempts = 3
	// retryDelay is the fixed pause between attempts.
	retryDelay = 2 * time.Second
	// maxResponseBytes caps how much of a backend response is read.
	maxResponseBytes = 1 << 20

	requestsPerSecond = 5
	requestBurst      = 10
)

// SleepFunc pauses for d or returns early with the context's error.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client issues authenticated JSON requests against the backend.
// Transient failures are retried with a fixed delay, and a 401 response
// triggers one transparent re-authentication outside the retry budget.
type Client struct {
	baseURL string
	httpc   *http.Client
	session *Session
	limiter *rate.Limiter
	sleep   SleepFunc
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithSleepFunc replaces the inter-attempt sleep. Tests use this to
// count sleeps instead of waiting.
func WithSleepFunc(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

// New creates a Client for the backend at baseURL acting as the given
// credentials. No network call is made until the first request.
func New(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
		session: NewSession(username, password),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		sleep:   sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// ActorID returns the authenticated actor's backend identifier.
func (c *Client) ActorID() int64 {
	return c.session.ActorID()
}

// ActorUsername returns the identity the client acts as.
func (c *Client) ActorUsername() string {
	return c.session.Username()
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string `json:"token"`
	User  struct {
		ID int64 `json:"id"`
	} `json:"user"`
}

// Authenticate signs in with the actor credentials and stores the
// returned bearer token and actor id. On failure the prior session
// state is left untouched.
func (c *Client) Authenticate(ctx context.Context) error {
	endpoint, err := c.endpoint("/api/auth/signin")
	if err != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", err)
	}

	payload, err := json.Marshal(signInRequest{
		Username: c.session.Username(),
		Password: c.session.password,
	})
	if err != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", err)
	}

	if waitErr := c.limiter.Wait(ctx); waitErr != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", waitErr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", &AuthError{Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("backend.Client.Authenticate: %w", &AuthError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body),
		})
	}

	var signIn signInResponse
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&signIn); decodeErr != nil {
		return fmt.Errorf("backend.Client.Authenticate: %w", &AuthError{Err: decodeErr})
	}
	if signIn.Token == "" {
		return fmt.Errorf("backend.Client.Authenticate: %w", &AuthError{Err: errors.New("sign-in response missing token")})
	}

	actorID := signIn.User.ID
	if actorID == 0 {
		// Some deployments omit the user object; fall back to the
		// token claims.
		if id, ok := actorIDFromToken(signIn.Token); ok {
			actorID = id
		}
	}

	c.session.establish(signIn.Token, actorID)
	log.Debug().Str("actor", c.session.Username()).Int64("actor_id", actorID).Msg("session established")

	return nil
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body and decodes the
// response into out. out may be nil when only the status matters.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out)
}

// request sends one logical authenticated call. A 401 response
// invalidates the token and retries the call after one
// re-authentication, without consuming the retry budget. Transport
// failures and other non-2xx responses are retried up to maxAttempts
// with a fixed delay, then the last error is propagated.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	attempts := 0
	reauths := 0

	for {
		err := c.do(ctx, method, path, body, out)
		if err == nil {
			return nil
		}

		// Credential rejection is not a transient failure; recovery
		// happens at the health-check tick, not here.
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return err
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			c.session.invalidate()
			if reauths >= 1 {
				// A second consecutive 401 means re-authentication did
				// not help; surface it instead of looping.
				return err
			}
			reauths++
			if authErr := c.Authenticate(ctx); authErr != nil {
				return authErr
			}
			continue
		}

		attempts++
		if attempts >= maxAttempts {
			return err
		}

		log.Warn().Err(err).Str("method", method).Str("path", path).Int("attempt", attempts).Msg("request failed, retrying")
		if sleepErr := c.sleep(ctx, retryDelay); sleepErr != nil {
			return sleepErr
		}
	}
}

// do performs a single attempt, authenticating lazily when no token is held.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if _, ok := c.session.Token(); !ok {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
	}

	endpoint, err := c.endpoint(path)
	if err != nil {
		return fmt.Errorf("backend.Client.do: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("backend.Client.do: %w", marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	if waitErr := c.limiter.Wait(ctx); waitErr != nil {
		return fmt.Errorf("backend.Client.do: %w", waitErr)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("backend.Client.do: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend.Client.do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); decodeErr != nil {
		return fmt.Errorf("backend.Client.do: decode response: %w", decodeErr)
	}

	return nil
}

func (c *Client) endpoint(path string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	joined, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	return joined.String(), nil
}

// errorResponse is the backend's error payload shape. Both field names
// are seen in the wild.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeErrorMessage(body io.Reader) string {
	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBytes)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
