package iiko

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"sales_targets/internal/config"
	"sales_targets/internal/logging"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	olapPath   = "/v2/reports/olap"
	authPath   = "/auth"
	logoutPath = "/logout"
)

var (
	ErrUnreachable       = errors.New("iiko server unreachable")
	ErrMalformedResponse = errors.New("iiko returned a malformed response")
	ErrMissingServer     = errors.New("iiko server is required")
	ErrMissingToken      = errors.New("iiko token is required")
)

// APIError is returned when the server answers with anything but 200 OK.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("iiko rejected request: %s", e.Status)
	}
	return fmt.Sprintf("iiko rejected request: %s: %s", e.Status, e.Message)
}

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a client without a base URL: the server comes with every
// call because credentials can be replaced at runtime. Retries are left to
// the caller.
func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		http:   httpClient,
		logger: logger.Named("iiko"),
	}
}

func (c *Client) FetchReport(ctx context.Context, rng DateRange, token string, server string) ([]ReportRow, error) {
	base, err := normalizeServer(server)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"reportType": "SALES",
			"key":        token,
		}).
		SetBody(newSalesRequest(rng)).
		Post(base + olapPath)
	if err != nil {
		err = redactURLError(err)
		c.logger.Warn("olap request failed",
			zap.String("server", base),
			logging.Secret("token", token),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiErrorFromResponse(resp)
	}

	var payload olapResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	c.logger.Debug("olap report received",
		zap.String("server", base),
		zap.String("range", rng.String()),
		zap.Int("rows", len(payload.Data)),
	)
	return payload.Data, nil
}

// Login exchanges user credentials for an access token. iiko expects the
// SHA-1 hex digest of the password.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	base, err := normalizeServer(creds.Server)
	if err != nil {
		return "", err
	}

	digest := sha1.Sum([]byte(creds.Password))
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"login": creds.User,
			"pass":  hex.EncodeToString(digest[:]),
		}).
		Get(base + authPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreachable, redactURLError(err))
	}
	if resp.StatusCode() != http.StatusOK {
		return "", apiErrorFromResponse(resp)
	}

	token := strings.TrimSpace(resp.String())
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrMalformedResponse)
	}
	c.logger.Debug("iiko login succeeded",
		zap.String("server", base),
		zap.String("user", creds.User),
		logging.Secret("token", token),
	)
	return token, nil
}

// Logout releases a token; iiko counts open tokens against the license.
func (c *Client) Logout(ctx context.Context, server, token string) error {
	base, err := normalizeServer(server)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", token).
		Get(base + logoutPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, redactURLError(err))
	}
	if resp.StatusCode() != http.StatusOK {
		return apiErrorFromResponse(resp)
	}
	return nil
}

func normalizeServer(server string) (string, error) {
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		return "", ErrMissingServer
	}
	return server, nil
}

// redactURLError drops the query string from the URL carried by a transport
// error. The query holds the access key or the login digest.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}

	redacted := "<redacted>"
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		u.Fragment = ""
		u.User = nil
		redacted = u.String()
	}
	return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
}

func apiErrorFromResponse(resp *resty.Response) error {
	return &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Message:    strings.TrimSpace(resp.String()),
	}
}
