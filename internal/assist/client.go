// client.go
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FallbackReply se usa cuando el servicio de generación de texto falla o
// no está configurado: el chat nunca se bloquea por el proveedor.
const FallbackReply = "Thanks for reaching out! A member of our support team will get back to you shortly."

// Cliente del servicio externo de generación de texto.
type Client struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// GenerateReply pide una respuesta al modelo. Cualquier fallo se devuelve
// como error; el que llama decide si usa FallbackReply.
func (c *Client) GenerateReply(ctx context.Context, prompt string) (string, error) {
	if c.apiURL == "" || c.apiKey == "" {
		return "", errors.New("assist api not configured")
	}

	payload, err := json.Marshal(generateRequest{Inputs: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assist api returned status %d", resp.StatusCode)
	}

	var out []generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out) == 0 || strings.TrimSpace(out[0].GeneratedText) == "" {
		return "", errors.New("assist api returned empty reply")
	}

	return strings.TrimSpace(out[0].GeneratedText), nil
}
