package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wfunc/matchbot/models"
)

// Client is the REST implementation of Connector against the chat
// service's v3 conversations API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type resourceResponse struct {
	ID string `json:"id"`
}

func (c *Client) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ChannelAccount, error) {
	url := fmt.Sprintf("%s/v3/conversations/%s/members", c.baseURL, conversationID)

	body, status, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get members returned %d", status)
	}

	var members []models.ChannelAccount
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) SendToConversation(ctx context.Context, conversationID string, activity *models.Activity) (string, error) {
	url := fmt.Sprintf("%s/v3/conversations/%s/activities", c.baseURL, conversationID)
	return c.postActivity(ctx, http.MethodPost, url, activity)
}

func (c *Client) CreateConversation(ctx context.Context, params ConversationParameters) (string, error) {
	url := fmt.Sprintf("%s/v3/conversations", c.baseURL)

	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	body, status, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("create conversation returned %d", status)
	}

	var resource resourceResponse
	if err := json.Unmarshal(body, &resource); err != nil {
		return "", err
	}
	return resource.ID, nil
}

func (c *Client) UpdateActivity(ctx context.Context, conversationID, activityID string, activity *models.Activity) (string, error) {
	url := fmt.Sprintf("%s/v3/conversations/%s/activities/%s", c.baseURL, conversationID, activityID)
	return c.postActivity(ctx, http.MethodPut, url, activity)
}

func (c *Client) postActivity(ctx context.Context, method, url string, activity *models.Activity) (string, error) {
	payload, err := json.Marshal(activity)
	if err != nil {
		return "", err
	}
	body, status, err := c.do(ctx, method, url, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("send activity returned %d", status)
	}

	var resource resourceResponse
	if err := json.Unmarshal(body, &resource); err != nil {
		return "", err
	}
	return resource.ID, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewBuffer(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
