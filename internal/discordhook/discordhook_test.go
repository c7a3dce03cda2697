package discordhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/ErikKalkoken/structurewatch/internal/discordhook"
)

const webhookURL = "https://discord.example.com/api/webhooks/123/token"

func TestSend(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	t.Run("should post message to webhook", func(t *testing.T) {
		// given
		httpmock.Reset()
		var got discordhook.Message
		httpmock.RegisterResponder(
			"POST",
			webhookURL,
			func(req *http.Request) (*http.Response, error) {
				if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
					return httpmock.NewStringResponse(400, ""), nil
				}
				return httpmock.NewStringResponse(204, ""), nil
			},
		)
		c := discordhook.NewClient(nil, webhookURL)
		m := discordhook.Message{
			Content: "@everyone",
			Embeds:  []discordhook.Embed{{Title: "Structure under attack", Description: "details"}},
		}
		// when
		err := c.Send(ctx, m)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
			assert.Equal(t, "@everyone", got.Content)
			assert.Equal(t, "Structure under attack", got.Embeds[0].Title)
		}
	})
	t.Run("should return error for server errors", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			webhookURL,
			httpmock.NewStringResponder(400, `{"message": "Cannot send an empty message"}`),
		)
		c := discordhook.NewClient(nil, webhookURL)
		// when
		err := c.Send(ctx, discordhook.Message{})
		// then
		var httpErr discordhook.HTTPError
		if assert.ErrorAs(t, err, &httpErr) {
			assert.Equal(t, 400, httpErr.Status)
		}
	})
	t.Run("should retry after rate limit response", func(t *testing.T) {
		// given
		httpmock.Reset()
		n := 0
		httpmock.RegisterResponder(
			"POST",
			webhookURL,
			func(req *http.Request) (*http.Response, error) {
				n++
				if n == 1 {
					resp := httpmock.NewStringResponse(429, `{"message": "You are being rate limited."}`)
					resp.Header.Set("Retry-After", "0")
					return resp, nil
				}
				return httpmock.NewStringResponse(204, ""), nil
			},
		)
		c := discordhook.NewClient(nil, webhookURL)
		// when
		err := c.Send(ctx, discordhook.Message{Content: "hi"})
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, 2, n)
		}
	})
}

func TestSendQueued(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	ctx := context.Background()
	t.Run("should deliver queued messages in order", func(t *testing.T) {
		// given
		httpmock.Reset()
		var got []string
		httpmock.RegisterResponder(
			"POST",
			webhookURL,
			func(req *http.Request) (*http.Response, error) {
				var m discordhook.Message
				if err := json.NewDecoder(req.Body).Decode(&m); err != nil {
					return httpmock.NewStringResponse(400, ""), nil
				}
				got = append(got, m.Content)
				return httpmock.NewStringResponse(204, ""), nil
			},
		)
		c := discordhook.NewClient(nil, webhookURL)
		c.Enqueue(discordhook.Message{Content: "first"})
		c.Enqueue(discordhook.Message{Content: "second"})
		assert.Equal(t, 2, c.QueueSize())
		// when
		err := c.SendQueued(ctx)
		// then
		if assert.NoError(t, err) {
			assert.Equal(t, []string{"first", "second"}, got)
			assert.Equal(t, 0, c.QueueSize())
		}
	})
	t.Run("should requeue failed message once and surface the error", func(t *testing.T) {
		// given
		httpmock.Reset()
		httpmock.RegisterResponder(
			"POST",
			webhookURL,
			httpmock.NewStringResponder(500, "oops"),
		)
		c := discordhook.NewClient(nil, webhookURL)
		c.Enqueue(discordhook.Message{Content: "doomed"})
		// when
		err := c.SendQueued(ctx)
		// then
		if assert.Error(t, err) {
			assert.Equal(t, 2, httpmock.GetTotalCallCount())
			assert.Equal(t, 0, c.QueueSize())
		}
	})
}
