package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// BillingService is the client for the external billing backend that owns
// the installment data and the actual payment registration. Field names on
// the wire are the backend's own and must not be translated.
type BillingService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewBillingService() *BillingService {
	base := os.Getenv("BILLING_BASE_URL")
	if base == "" {
		base = "http://localhost:8091"
	}
	return &BillingService{
		baseURL: base,
		apiKey:  os.Getenv("BILLING_API_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewBillingServiceWithBase is used by tests to point the client at a stub.
func NewBillingServiceWithBase(base string) *BillingService {
	return &BillingService{baseURL: base, client: &http.Client{Timeout: 10 * time.Second}}
}

// TenantPayload mirrors the backend's tenant snapshot.
type TenantPayload struct {
	Nombre         string          `json:"nombre"`
	Propiedad      string          `json:"propiedad"`
	Tipo           string          `json:"tipo"`
	Cuit           string          `json:"cuit"`
	DiaVencimiento int             `json:"diaVencimiento"`
	DeudaTotal     decimal.Decimal `json:"deudaTotal"`
}

// InstallmentPayload is one outstanding installment as the backend sends it,
// interest already applied server-side.
type InstallmentPayload struct {
	ID               int             `json:"id"`
	IDDetalle        int             `json:"id_detalle"`
	Periodo          string          `json:"periodo"`
	Concepto         string          `json:"concepto"`
	Importe          decimal.Decimal `json:"importe"`
	ImporteOriginal  decimal.Decimal `json:"importeOriginal"`
	Interes          decimal.Decimal `json:"interes"`
	FechaVencimiento string          `json:"fechaVencimiento"`
	IDTarifa         int             `json:"id_tarifa"`
}

// FetchResponse is the payload of the obtener_cuotas endpoint.
type FetchResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message,omitempty"`
	Inquilino       TenantPayload        `json:"inquilino"`
	Cuotas          []InstallmentPayload `json:"cuotas"`
	FechaCalculo    string               `json:"fechaCalculo"`
	TasaDiaria      *float64             `json:"tasaDiaria,omitempty"`
	EsTransferencia bool                 `json:"esTransferencia"`
	FechaHoy        string               `json:"fechaHoy,omitempty"`
}

// SubmitInstallment is one selected installment in a payment registration.
type SubmitInstallment struct {
	IDTarifa int             `json:"id_tarifa"`
	Periodo  string          `json:"periodo"`
	Importe  decimal.Decimal `json:"importe"`
}

// SubmitRequest is the payment registration payload.
type SubmitRequest struct {
	IDWork             int                 `json:"id_work"`
	Efectivo           decimal.Decimal     `json:"efectivo"`
	Transferencia      decimal.Decimal     `json:"transferencia"`
	Cheque             decimal.Decimal     `json:"cheque"`
	Retencion          decimal.Decimal     `json:"retencion"`
	Cuotas             []SubmitInstallment `json:"cuotas"`
	FechaTransferencia string              `json:"fecha_transferencia,omitempty"`
	Usuario            string              `json:"usuario"`
}

// SubmitResponse is the backend's answer to a payment registration. Success
// may be false on a 200 response; the caller must check it.
type SubmitResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	NroComprobante int             `json:"nroComprobante"`
	PagoTotal      decimal.Decimal `json:"pagoTotal"`
}

// FetchInstallments retrieves the tenant snapshot and outstanding
// installments for a work id, optionally at a reference date. A response
// with success=false is returned as an error carrying the backend message.
func (s *BillingService) FetchInstallments(ctx context.Context, workID int, fecha string) (*FetchResponse, error) {
	params := url.Values{}
	params.Set("id_work", fmt.Sprintf("%d", workID))
	if fecha != "" {
		params.Set("fecha", fecha)
	}

	var resp FetchResponse
	endpoint := "/blank_api_obtener_cuotas/?" + params.Encode()
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "backend rejected installment fetch"
		}
		return nil, fmt.Errorf("fetch installments for work %d: %s", workID, msg)
	}

	return &resp, nil
}

// RegisterPayment posts a payment registration. Transport and decoding
// problems come back as errors; a decoded response with success=false is
// returned as-is for the caller to surface the backend message.
func (s *BillingService) RegisterPayment(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := s.doRequest(ctx, http.MethodPost, "/blank_api_registrar_pago/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *BillingService) doRequest(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
