package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client entrega e-mails transacionais pela API SMTP da Brevo.
// A entrega é melhor esforço do ponto de vista da liquidação; quem chama
// decide retry/DLQ.
type Client struct {
	URL    string
	APIKey string
	From   string
	HTTP   *http.Client
}

func New(url, apiKey, from string) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		From:   from,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	TextContent string  `json:"textContent"`
}

type party struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Send envia um e-mail de texto simples para um destinatário.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	payload, _ := json.Marshal(sendRequest{
		Sender:      party{Name: "Degen Echo", Email: c.From},
		To:          []party{{Email: to}},
		Subject:     subject,
		TextContent: body,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("brevo http %d", resp.StatusCode)
	}
	return nil
}
