package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

type emailChannel struct {
	host string // host:port
	from string
	to   string
}

// NewEmailChannel delivers alerts over SMTP. Returns nil when any of the
// SMTP settings is missing.
func NewEmailChannel(host, from, to string) Channel {
	if host == "" || from == "" || to == "" {
		return nil
	}
	return &emailChannel{host: host, from: from, to: to}
}

func (c *emailChannel) Name() string { return ChannelEmail }

func (c *emailChannel) Send(ctx context.Context, tenantID, message string) error {
	body := fmt.Sprintf("To: %s\r\nSubject: [chainscope] alert for tenant %s\r\n\r\n%s\r\n",
		c.to, tenantID, message)
	if err := smtp.SendMail(c.host, nil, c.from, []string{c.to}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type slackChannel struct {
	webhookURL string
}

// NewSlackChannel posts alerts to a Slack incoming webhook. Returns nil when
// the webhook URL is missing.
func NewSlackChannel(webhookURL string) Channel {
	if webhookURL == "" {
		return nil
	}
	return &slackChannel{webhookURL: webhookURL}
}

func (c *slackChannel) Name() string { return ChannelSlack }

func (c *slackChannel) Send(ctx context.Context, tenantID, message string) error {
	payload := map[string]string{
		"text": fmt.Sprintf("[%s] %s", tenantID, message),
	}
	return postJSON(ctx, c.webhookURL, payload)
}

type webhookChannel struct {
	url string
}

// NewWebhookChannel posts alert JSON to a generic webhook endpoint. Returns
// nil when the URL is missing.
func NewWebhookChannel(url string) Channel {
	if url == "" {
		return nil
	}
	return &webhookChannel{url: url}
}

func (c *webhookChannel) Name() string { return ChannelWebhook }

func (c *webhookChannel) Send(ctx context.Context, tenantID, message string) error {
	payload := map[string]string{
		"tenant_id": tenantID,
		"message":   message,
		"sent_at":   time.Now().UTC().Format(time.RFC3339),
	}
	return postJSON(ctx, c.url, payload)
}

type redisChannel struct {
	client *redis.Client
	topic  string
}

// NewRedisChannel publishes alert JSON on a Redis pub/sub topic for the
// dashboard to consume. Returns nil when the Redis URL is missing.
func NewRedisChannel(redisURL, topic string) (Channel, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &redisChannel{client: redis.NewClient(opt), topic: topic}, nil
}

func (c *redisChannel) Name() string { return ChannelRedis }

func (c *redisChannel) Send(ctx context.Context, tenantID, message string) error {
	payload, _ := json.Marshal(map[string]string{
		"tenant_id": tenantID,
		"message":   message,
	})
	if err := c.client.Publish(ctx, c.topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
