package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PrintJob is the envelope sent to the local printer bridge. Destino selects
// the physical printer: "cocina", "bebidas" or "caja".
type PrintJob struct {
	Destino string          `json:"destino"`
	Tipo    string          `json:"tipo"` // comanda | ticket | precuenta
	Payload json.RawMessage `json:"payload"`
}

// PrinterClient talks to the printer bridge over HTTP. The bridge runs on the
// restaurant LAN next to the thermal printers; the backend never speaks ESC/POS
// directly.
type PrinterClient struct {
	bridgeURL  string
	httpClient *http.Client
}

func NewPrinterClient(bridgeURL string) *PrinterClient {
	return &PrinterClient{
		bridgeURL:  bridgeURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Imprimir posts one job to the bridge. Callers retry on error; the bridge
// itself does not queue.
func (c *PrinterClient) Imprimir(ctx context.Context, job PrintJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("printer: marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+"/print", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("printer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("printer: bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("printer: bridge returned %d", resp.StatusCode)
	}
	return nil
}
