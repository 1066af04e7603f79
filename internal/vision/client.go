package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ExtractRequest é o corpo enviado ao serviço de visão
type ExtractRequest struct {
	ImageURL    string `json:"image_url"`
	ContextHint string `json:"context_hint,omitempty"`
}

// ExtractResponse carrega a saída bruta do modelo (JSON ou texto livre)
type ExtractResponse struct {
	OutputText string `json:"output_text"`
}

// Client chama o serviço externo que lê o print da aposta
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		// modelos de visão demoram; bem mais folga que chamadas internas
		HTTP: &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract devolve o texto bruto do modelo; interpretar é papel do pacote extraction
func (c *Client) Extract(ctx context.Context, imageURL, hint string) (string, error) {
	body, _ := json.Marshal(ExtractRequest{ImageURL: imageURL, ContextHint: hint})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision call: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return "", fmt.Errorf("vision extract http %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out ExtractResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("vision decode: %w", err)
	}
	return out.OutputText, nil
}
