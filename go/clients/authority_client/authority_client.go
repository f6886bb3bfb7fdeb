package authority_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/fluencyrush/go/clients"
	"github.com/mcdev12/fluencyrush/go/internal/models"
)

// AuthorityClient issues write requests to the authority that owns users, feed and chat.
type AuthorityClient struct {
	*clients.BaseClient
}

func NewAuthorityClient(baseURL string) *AuthorityClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AuthorityClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
}

type registerUserRequest struct {
	Name string `json:"name"`
}

type RegisterUserResponse struct {
	OK   bool        `json:"ok"`
	New  bool        `json:"new"`
	User models.User `json:"user"`
}

type addXPRequest struct {
	Amount int `json:"amount"`
}

type appendFeedRequest struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	XP     int    `json:"xp,omitempty"`
}

type sendChatRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// RegisterUser creates or refreshes the user record. Idempotent by id.
func (c *AuthorityClient) RegisterUser(ctx context.Context, id, name string) (*RegisterUserResponse, error) {
	body, err := c.Post(ctx, userPath(id), registerUserRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	var resp RegisterUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return &resp, nil
}

// AddXP adds amount to the user's XP. key deduplicates retried deliveries;
// an empty key gets a fresh one.
func (c *AuthorityClient) AddXP(ctx context.Context, id string, amount int, key string) error {
	if amount < 0 {
		return fmt.Errorf("xp amount must be non-negative, got %d", amount)
	}
	if key == "" {
		key = uuid.NewString()
	}

	_, err := c.Patch(ctx, userPath(id)+"/xp", addXPRequest{Amount: amount}, map[string]string{
		IdempotencyKeyHeader: key,
	})
	if err != nil {
		return fmt.Errorf("failed to add xp: %w", err)
	}
	return nil
}

// AppendFeed appends one activity entry; the authority stamps the time.
func (c *AuthorityClient) AppendFeed(ctx context.Context, name, action string, xp int) error {
	if _, err := c.Post(ctx, FeedEndpoint, appendFeedRequest{Name: name, Action: action, XP: xp}); err != nil {
		return fmt.Errorf("failed to append feed item: %w", err)
	}
	return nil
}

// SendChat appends one chat message.
func (c *AuthorityClient) SendChat(ctx context.Context, name, text string) error {
	if _, err := c.Post(ctx, ChatEndpoint, sendChatRequest{Name: name, Text: text}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	return nil
}

// FetchQuestionsConfig returns the raw questions-config document.
func (c *AuthorityClient) FetchQuestionsConfig(ctx context.Context) ([]byte, error) {
	body, err := c.Get(ctx, QuestionsConfigEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions config: %w", err)
	}
	return body, nil
}

// Reset wipes the authority's shared state. Development only.
func (c *AuthorityClient) Reset(ctx context.Context) error {
	if _, err := c.Post(ctx, ResetEndpoint, struct{}{}); err != nil {
		return fmt.Errorf("failed to reset authority: %w", err)
	}
	return nil
}

// EventsURL returns the WebSocket URL of the push stream.
func (c *AuthorityClient) EventsURL() string {
	return PushURL(c.BaseURL())
}

// PushURL converts an http(s) base URL into the ws(s) push-stream URL.
func PushURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + EventsEndpoint
}

func userPath(id string) string {
	return UsersEndpoint + "/" + url.PathEscape(id)
}
