package travelexpense

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/service"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized is returned when the server rejects the access token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non 2xx response of the api.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%d: %s: %s", e.Status, e.Field, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type AuthClient interface {
	Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*model.Profile, error)
	UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*model.Profile, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type DashboardClient interface {
	Dashboard(ctx context.Context) (*service.UserData, error)
}

type RegulationClient interface {
	CreateRegulation(ctx context.Context, input service.RegulationInput) (*service.SaveResult, error)
	ConfirmRevision(ctx context.Context, token string) (*model.Regulation, error)
	UpdateRegulation(ctx context.Context, id string, input service.RegulationInput) (*model.Regulation, error)
	ListRegulations(ctx context.Context, search string, latestOnly bool) ([]*model.Regulation, error)
	GetRegulation(ctx context.Context, id string) (*model.Regulation, error)
	RegulationHistory(ctx context.Context, id string) ([]service.HistoryEntry, error)
	RegulationText(ctx context.Context, id string) (string, error)
	ExportRegulation(ctx context.Context, id string) (*service.ExportFile, error)
	DeleteRegulation(ctx context.Context, id string) error
}

type Client interface {
	io.Closer
	AuthClient
	DashboardClient
	RegulationClient
	// SetToken sets the bearer token sent with every request.
	SetToken(token string)
	Token() string
}

type client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient returns a client of the rest api served at baseURL, e.g. http://localhost:4001.
func NewClient(baseURL string) Client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do sends the request and decodes the data of the envelope into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		var field struct {
			Field string `json:"field"`
		}
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &field) == nil {
			apiErr.Field = field.Field
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s %s response: %w", method, path, err)
	}

	return nil
}

func (c *client) Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error) {
	var session auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", input, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	var session auth.Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *client) Refresh(ctx context.Context, token string) (*auth.Session, error) {
	var session auth.Session
	body := map[string]string{"access_token": token}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *client) Me(ctx context.Context) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *client) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*model.Profile, error) {
	var profile model.Profile
	if err := c.do(ctx, http.MethodPut, "/auth/profile", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset", map[string]string{"email": email}, nil)
}

func (c *client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/password/confirm", body, nil)
}

func (c *client) Dashboard(ctx context.Context) (*service.UserData, error) {
	var data service.UserData
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *client) CreateRegulation(ctx context.Context, input service.RegulationInput) (*service.SaveResult, error) {
	var result service.SaveResult
	if err := c.do(ctx, http.MethodPost, "/regulations", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) ConfirmRevision(ctx context.Context, token string) (*model.Regulation, error) {
	var regulation model.Regulation
	path := "/regulations/proposals/" + url.PathEscape(token) + "/confirm"
	if err := c.do(ctx, http.MethodPost, path, nil, &regulation); err != nil {
		return nil, err
	}
	return &regulation, nil
}

func (c *client) UpdateRegulation(ctx context.Context, id string, input service.RegulationInput) (*model.Regulation, error) {
	var regulation model.Regulation
	if err := c.do(ctx, http.MethodPut, "/regulations/"+url.PathEscape(id), input, &regulation); err != nil {
		return nil, err
	}
	return &regulation, nil
}

func (c *client) ListRegulations(ctx context.Context, search string, latestOnly bool) ([]*model.Regulation, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if latestOnly {
		query.Set("latest", "true")
	}

	path := "/regulations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var regulations []*model.Regulation
	if err := c.do(ctx, http.MethodGet, path, nil, &regulations); err != nil {
		return nil, err
	}
	return regulations, nil
}

func (c *client) GetRegulation(ctx context.Context, id string) (*model.Regulation, error) {
	var regulation model.Regulation
	if err := c.do(ctx, http.MethodGet, "/regulations/"+url.PathEscape(id), nil, &regulation); err != nil {
		return nil, err
	}
	return &regulation, nil
}

func (c *client) RegulationHistory(ctx context.Context, id string) ([]service.HistoryEntry, error) {
	var history []service.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/regulations/"+url.PathEscape(id)+"/history", nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *client) RegulationText(ctx context.Context, id string) (string, error) {
	var res struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/regulations/"+url.PathEscape(id)+"/text", nil, &res); err != nil {
		return "", err
	}
	return res.Text, nil
}

// ExportRegulation downloads the rendered text, the file name comes from Content-Disposition.
func (c *client) ExportRegulation(ctx context.Context, id string) (*service.ExportFile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/regulations/"+url.PathEscape(id)+"/export", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to export regulation %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope
		_ = json.Unmarshal(data, &env)
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	file := &service.ExportFile{FileName: id + ".txt", Content: string(data)}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			file.FileName = name
		}
	}

	return file, nil
}

func (c *client) DeleteRegulation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/regulations/"+url.PathEscape(id), nil, nil)
}
