// Package discordhook is a client for posting messages to Discord webhooks.
//
// Each client serves one webhook URL and keeps a FIFO queue of outgoing messages.
// Sends are spaced out to respect the Discord rate limit
// and rate limit responses are retried a bounded number of times.
package discordhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxRateLimitRetries = 3
	defaultRetryAfter   = 5 * time.Second
	minimumSendSpacing  = time.Second
	responseBodySnippet = 256
)

// Message is the payload posted to a Discord webhook.
type Message struct {
	AvatarURL string  `json:"avatar_url,omitempty"`
	Content   string  `json:"content,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
	Username  string  `json:"username,omitempty"`
}

// Embed is a rich content block within a message.
type Embed struct {
	Author      *EmbedAuthor    `json:"author,omitempty"`
	Color       int32           `json:"color,omitempty"`
	Description string          `json:"description,omitempty"`
	Footer      *EmbedFooter    `json:"footer,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Title       string          `json:"title,omitempty"`
}

type EmbedAuthor struct {
	IconURL string `json:"icon_url,omitempty"`
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
}

type EmbedFooter struct {
	IconURL string `json:"icon_url,omitempty"`
	Text    string `json:"text,omitempty"`
}

type EmbedThumbnail struct {
	URL string `json:"url,omitempty"`
}

// HTTPError is returned when the webhook responds with an error status.
type HTTPError struct {
	Status  int
	Message string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("webhook responded with status %d: %s", e.Status, e.Message)
}

type queuedMessage struct {
	message Message
	retried bool
}

// Client delivers messages to one Discord webhook.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	url        string

	mu    sync.Mutex
	queue []queuedMessage
}

// NewClient returns a new client for a webhook URL.
// When httpClient is nil the default client is used.
func NewClient(httpClient *http.Client, url string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(minimumSendSpacing), 1),
		url:        url,
	}
	return c
}

// Enqueue adds a message to the end of the queue.
func (c *Client) Enqueue(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, queuedMessage{message: m})
}

// QueueSize returns the number of queued messages.
func (c *Client) QueueSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// SendQueued delivers all queued messages in order.
// A message that fails to send is requeued once and retried within the same drain.
// Messages failing a second time are dropped and the first error is returned.
func (c *Client) SendQueued(ctx context.Context) error {
	var firstErr error
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			break
		}
		q := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		err := c.Send(ctx, q.message)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if !q.retried {
			q.retried = true
			c.mu.Lock()
			c.queue = append(c.queue, q)
			c.mu.Unlock()
		}
	}
	return firstErr
}

// Send delivers one message to the webhook.
// Rate limit responses are retried up to 3 times, honoring Retry-After.
func (c *Client) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal webhook message: %w", err)
	}
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		retryAfter, err := c.post(ctx, body)
		if err == nil {
			return nil
		}
		httpErr, ok := err.(HTTPError)
		isRateLimited := ok && httpErr.Status == http.StatusTooManyRequests
		if !isRateLimited || attempt >= maxRateLimitRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

func (c *Client) post(ctx context.Context, body []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return 0, nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodySnippet))
	retryAfter := defaultRetryAfter
	if s := resp.Header.Get("Retry-After"); s != "" {
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			retryAfter = time.Duration(x * float64(time.Second))
		}
	}
	return retryAfter, HTTPError{Status: resp.StatusCode, Message: string(snippet)}
}
