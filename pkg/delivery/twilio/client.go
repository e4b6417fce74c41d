// Package twilio sends SMS through the Twilio Messages API.
package twilio

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
	ProviderName   = "twilio"
	DefaultBaseURL = "https://api.twilio.com"
)

type Config struct {
	BaseURL    string `mapstructure:"base_url"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

// Client implements delivery.SMSSender.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config, httpClient *http.Client) (*Client, error) {
	if config.AccountSID == "" || config.AuthToken == "" || config.From == "" {
		return nil, errors.New("twilio requires account_sid, auth_token and from")
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{config: config, httpClient: httpClient}, nil
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (c *Client) SendSMS(ctx context.Context, message delivery.SMSMessage) (*delivery.Result, error) {
	form := url.Values{}
	form.Set("To", message.To)
	form.Set("From", c.config.From)
	form.Set("Body", message.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(c.config.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.config.AccountSID, c.config.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	var body messageResponse

	err = delivery.DecodeResponse(ProviderName, resp, &body)
	if err != nil {
		return nil, err
	}

	return &delivery.Result{
		Provider:          ProviderName,
		ProviderMessageID: body.SID,
		Status:            body.Status,
	}, nil
}
