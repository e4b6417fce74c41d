// Package agent hands leads off to the AI reply service and sends its reply.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
)

const (
	ProviderName        = "agent"
	defaultEmailSubject = "Following up"
)

type Config struct {
	URL          string `mapstructure:"url"`
	APIKey       string `mapstructure:"api_key"`
	EmailSubject string `mapstructure:"email_subject"`
}

// Client implements delivery.AgentHandoff. The agent service drafts the
// reply; the client sends it over the resolved channel.
type Client struct {
	config     Config
	httpClient *http.Client
	email      delivery.EmailSender
	sms        delivery.SMSSender
}

func NewClient(config Config, httpClient *http.Client, email delivery.EmailSender, sms delivery.SMSSender) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("agent handoff requires url")
	}

	if config.EmailSubject == "" {
		config.EmailSubject = defaultEmailSubject
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{config: config, httpClient: httpClient, email: email, sms: sms}, nil
}

type replyResponse struct {
	Reply   string `json:"reply"`
	AgentID string `json:"agent_id"`
}

func (c *Client) Handoff(ctx context.Context, request delivery.HandoffRequest) (*delivery.HandoffResult, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.URL, "/")+"/handoff", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent service: %w", err)
	}
	defer resp.Body.Close()

	var reply replyResponse

	err = delivery.DecodeResponse(ProviderName, resp, &reply)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(reply.Reply) == "" {
		return nil, fmt.Errorf("agent %s returned an empty reply", request.AgentID)
	}

	sent, err := c.send(ctx, request, reply.Reply)
	if err != nil {
		return nil, err
	}

	agentID := reply.AgentID
	if agentID == "" {
		agentID = request.AgentID
	}

	return &delivery.HandoffResult{
		AgentID:        agentID,
		Channel:        request.Channel,
		SuggestedReply: reply.Reply,
		Delivery:       sent,
	}, nil
}

func (c *Client) send(ctx context.Context, request delivery.HandoffRequest, reply string) (*delivery.Result, error) {
	switch request.Channel {
	case models.ChannelEmail:
		if c.email == nil {
			return nil, errors.New("no email sender configured for agent handoff")
		}

		return c.email.SendEmail(ctx, delivery.EmailMessage{
			To:      request.To,
			Subject: c.config.EmailSubject,
			Body:    reply,
		})
	case models.ChannelSMS:
		if c.sms == nil {
			return nil, errors.New("no sms sender configured for agent handoff")
		}

		return c.sms.SendSMS(ctx, delivery.SMSMessage{To: request.To, Body: reply})
	default:
		return nil, fmt.Errorf("unsupported handoff channel %q", request.Channel)
	}
}
