package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

// Notifier posts messages through the Slack Web API (chat.postMessage).
type Notifier struct {
	baseURL  string
	botToken string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the bot token and API endpoint. A nil client gets a
// 10-second timeout default.
func NewNotifier(baseURL, botToken string, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Notifier{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		botToken: botToken,
		client:   client,
	}
}

type postMessageRequest struct {
	Channel     string      `json:"channel"`
	Text        string      `json:"text"`
	Blocks      []blockJSON `json:"blocks,omitempty"`
	UnfurlLinks bool        `json:"unfurl_links"`
	UnfurlMedia bool        `json:"unfurl_media"`
}

type blockJSON struct {
	Type     string        `json:"type"`
	Text     *textJSON     `json:"text,omitempty"`
	Elements []elementJSON `json:"elements,omitempty"`
}

type textJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type elementJSON struct {
	Type  string    `json:"type"`
	Text  *textJSON `json:"text,omitempty"`
	URL   string    `json:"url,omitempty"`
	Style string    `json:"style,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

// PostMessage delivers one message and returns the Slack message timestamp.
// Failures are wrapped as DeliveryError; the caller decides whether they are
// fatal.
func (n *Notifier) PostMessage(ctx context.Context, channel string, msg ports.Message) (string, error) {
	if n.botToken == "" {
		return "", &domain.DeliveryError{Err: fmt.Errorf("slack notifier misconfigured: missing bot token")}
	}
	if channel == "" {
		return "", &domain.DeliveryError{Err: fmt.Errorf("slack notifier misconfigured: missing channel")}
	}

	body, err := json.Marshal(postMessageRequest{
		Channel: channel,
		Text:    msg.Text,
		Blocks:  encodeBlocks(msg.Blocks),
	})
	if err != nil {
		return "", &domain.DeliveryError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	endpoint := n.baseURL + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.DeliveryError{Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+n.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", &domain.DeliveryError{Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &domain.DeliveryError{Err: fmt.Errorf("slack returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))}
	}

	var decoded postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &domain.DeliveryError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if !decoded.OK {
		return "", &domain.DeliveryError{Err: fmt.Errorf("slack error: %s", decoded.Error)}
	}

	return decoded.TS, nil
}

func encodeBlocks(blocks []ports.Block) []blockJSON {
	if len(blocks) == 0 {
		return nil
	}

	encoded := make([]blockJSON, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case "actions":
			elements := make([]elementJSON, 0, len(block.Buttons))
			for _, button := range block.Buttons {
				elements = append(elements, elementJSON{
					Type:  "button",
					Text:  &textJSON{Type: "plain_text", Text: button.Label},
					URL:   button.URL,
					Style: button.Style,
				})
			}
			encoded = append(encoded, blockJSON{Type: "actions", Elements: elements})
		default:
			encoded = append(encoded, blockJSON{
				Type: "section",
				Text: &textJSON{Type: "mrkdwn", Text: block.Markdown},
			})
		}
	}
	return encoded
}
