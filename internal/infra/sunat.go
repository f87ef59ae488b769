package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SunatItem is one invoice line sent to the e-invoicing service.
type SunatItem struct {
	Descripcion    string  `json:"descripcion"`
	Cantidad       int     `json:"cantidad"`
	ValorUnitario  float64 `json:"valor_unitario"`
	PrecioUnitario float64 `json:"precio_unitario"`
	TotalItem      float64 `json:"total_item"`
}

// SunatPayload is sent to the e-invoicing service, which handles XML signing
// and the SUNAT SOAP exchange.
type SunatPayload struct {
	TipoComprobante string      `json:"tipo_comprobante"` // BOLETA | FACTURA
	Serie           string      `json:"serie"`
	Correlativo     int64       `json:"correlativo"`
	FechaEmision    string      `json:"fecha_emision"`
	EmisorRUC       string      `json:"emisor_ruc"`
	ClienteTipoDoc  string      `json:"cliente_tipo_doc"`
	ClienteNumDoc   string      `json:"cliente_num_doc"`
	ClienteNombre   string      `json:"cliente_nombre"`
	MontoGravado    float64     `json:"monto_gravado"`
	IGV             float64     `json:"igv"`
	Total           float64     `json:"total"`
	Items           []SunatItem `json:"items"`
	VentaID         string      `json:"venta_id"`
}

// SunatResponse is returned after the service submits the document.
type SunatResponse struct {
	Aceptado    bool   `json:"aceptado"`
	XMLFileName string `json:"xml_file_name"`
	Mensaje     string `json:"mensaje"`
}

// SunatClient delegates electronic invoicing to a separate service so SUNAT
// outages never block the billing transaction.
type SunatClient struct {
	serviceURL string
	httpClient *http.Client
}

func NewSunatClient(serviceURL string) *SunatClient {
	return &SunatClient{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enviar submits one comprobante and returns the acceptance result.
func (c *SunatClient) Enviar(ctx context.Context, payload SunatPayload) (*SunatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sunat: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/comprobantes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sunat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sunat: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sunat: service returned %d", resp.StatusCode)
	}

	var result SunatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sunat: decode response: %w", err)
	}
	return &result, nil
}
