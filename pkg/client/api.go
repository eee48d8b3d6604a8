package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer of the REST API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIClient talks to the REST API. It is safe for concurrent use.
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mutex sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *APIClient) SetToken(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.token = token
}

func (c *APIClient) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.token
}

// BaseURL is the API root without a trailing slash.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

func (c *APIClient) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

func (c *APIClient) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *APIClient) ListProducts(ctx context.Context, query url.Values) (*ProductPage, error) {
	path := "/api/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *APIClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out struct {
		Product *Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *APIClient) ListFavorites(ctx context.Context) ([]*Product, error) {
	var out struct {
		Products []*Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products/favorites/user", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *APIClient) AddFavorite(ctx context.Context, productID string) (*FavoriteResult, error) {
	var result FavoriteResult
	if err := c.do(ctx, http.MethodPost, "/api/products/"+url.PathEscape(productID)+"/favorite", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) RemoveFavorite(ctx context.Context, productID string) (*FavoriteResult, error) {
	var result FavoriteResult
	if err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(productID)+"/favorite", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) ListConversations(ctx context.Context) ([]*Conversation, error) {
	var out struct {
		Conversations []*Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetOrCreateConversation returns the conversation with participantID about
// productID (empty for a general conversation) and whether it was new.
func (c *APIClient) GetOrCreateConversation(ctx context.Context, participantID, productID string) (*Conversation, bool, error) {
	var out struct {
		Conversation *Conversation `json:"conversation"`
		Created      bool          `json:"created"`
	}
	body := map[string]string{"participant_id": participantID, "product_id": productID}
	if err := c.do(ctx, http.MethodPost, "/api/messages/conversations", body, &out); err != nil {
		return nil, false, err
	}
	return out.Conversation, out.Created, nil
}

func (c *APIClient) ListMessages(ctx context.Context, conversationID string, page, limit int) (*MessagePage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/messages/conversations/" + url.PathEscape(conversationID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out MessagePage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ArchiveConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/messages/conversations/"+url.PathEscape(conversationID), nil, nil)
}

// SendMessage stores a message. The second result reports a replay of an
// already stored client message id.
func (c *APIClient) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, bool, error) {
	var out struct {
		Message   *Message `json:"message"`
		Duplicate bool     `json:"duplicate"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, false, err
	}
	return out.Message, out.Duplicate, nil
}

func (c *APIClient) MarkMessageRead(ctx context.Context, messageID string) (*Message, error) {
	var out struct {
		Message *Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/messages/"+url.PathEscape(messageID)+"/read", nil, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

func (c *APIClient) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: "unreadable error body"}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
