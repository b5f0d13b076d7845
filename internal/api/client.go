// Package api is the REST client of the planning backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Credentials supplies the token and branch scope of every request.
type Credentials interface {
	Token() string
	BranchID() int64

	// Epoch changes every time the branch selection changes.
	Epoch() uint64

	// Unauthorized is called when the backend answers 401.
	Unauthorized()
}

// Client talks to the backend. It never retries.
type Client struct {
	http   *resty.Client
	creds  Credentials
	cfg    config.APIConfig
	logger *slog.Logger
}

// New creates a client for cfg.
func New(cfg config.APIConfig, creds Credentials) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   http,
		creds:  creds,
		cfg:    cfg,
		logger: slog.Default().With("component", "api"),
	}
}

// call describes one request.
type call struct {
	method   string
	path     string
	query    map[string]string
	body     any
	out      any
	scoped   bool
	anon     bool
	envelope bool
}

// envelope is the {success, message, data} shape of the auth endpoints.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, cl call) error {
	epoch := c.creds.Epoch()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", util.NewRequestID())

	if !cl.anon {
		if token := c.creds.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if cl.scoped {
		if branch := c.creds.BranchID(); branch > 0 {
			id := strconv.FormatInt(branch, 10)
			req.SetHeader(c.cfg.BranchHeader, id)
			req.SetQueryParam(c.cfg.BranchParam, id)
		}
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if cl.scoped && c.creds.Epoch() != epoch {
		c.logger.Debug("discarding response for previous branch", "method", cl.method, "path", cl.path)
		return ErrStaleBranch
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}

	if resp.IsError() {
		apiErr := parseError(resp.StatusCode(), resp.Body())
		c.logger.Warn("request failed",
			"method", cl.method, "path", cl.path,
			"status", apiErr.Status, "code", apiErr.Code)
		if apiErr.Status == 401 {
			c.creds.Unauthorized()
		}
		return apiErr
	}

	c.logger.Debug("request completed", "method", cl.method, "path", cl.path, "status", resp.StatusCode())

	if cl.out == nil {
		return nil
	}
	if cl.method != http.MethodGet && len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil
	}
	return decode(resp.StatusCode(), resp.Body(), cl.envelope, cl.out)
}

// decode unmarshals a success body into out, unwrapping the auth envelope
// when present, and validates the result.
func decode(status int, body []byte, wrapped bool, out any) error {
	data := bytes.TrimSpace(body)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty response body", models.ErrInvalidPayload)
	}

	if wrapped {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
		}
		if env.Success != nil && !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = fmt.Sprintf("Error %d", status)
			}
			return &Error{Status: status, Message: msg}
		}
		if env.Success != nil {
			data = env.Data
		}
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if wrapped {
			return nil
		}
		return fmt.Errorf("%w: null response body", models.ErrInvalidPayload)
	}

	if err := json.Unmarshal(data, out); err != nil {
		if errors.Is(err, models.ErrInvalidPayload) {
			return err
		}
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	return validate(out)
}

// validate runs the payload rules on a decoded struct or slice of structs.
func validate(out any) error {
	rv := reflect.ValueOf(out)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return models.ValidatePayload(rv.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < rv.Len(); i++ {
			el := rv.Index(i)
			if el.Kind() != reflect.Struct {
				return nil
			}
			if err := models.ValidatePayload(el.Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
