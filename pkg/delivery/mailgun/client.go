// Package mailgun sends email through the Mailgun messages API.
package mailgun

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/delivery"
)

const (
	ProviderName   = "mailgun"
	DefaultBaseURL = "https://api.mailgun.net"
)

type Config struct {
	BaseURL string `mapstructure:"base_url"`
	Domain  string `mapstructure:"domain"`
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from"`
}

// Client implements delivery.EmailSender.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config, httpClient *http.Client) (*Client, error) {
	if config.Domain == "" || config.APIKey == "" || config.From == "" {
		return nil, errors.New("mailgun requires domain, api_key and from")
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{config: config, httpClient: httpClient}, nil
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (c *Client) SendEmail(ctx context.Context, message delivery.EmailMessage) (*delivery.Result, error) {
	form := url.Values{}
	form.Set("from", c.config.From)
	form.Set("to", message.To)
	form.Set("subject", message.Subject)
	form.Set("text", message.Body)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(c.config.Domain))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	var body sendResponse

	err = delivery.DecodeResponse(ProviderName, resp, &body)
	if err != nil {
		return nil, err
	}

	return &delivery.Result{
		Provider:          ProviderName,
		ProviderMessageID: body.ID,
		Status:            body.Message,
	}, nil
}
