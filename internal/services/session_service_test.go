package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caja_app_echo/internal/models"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// fakeBackend stubs the billing backend for session tests.
type fakeBackend struct {
	mu           sync.Mutex
	fetchBody    FetchResponse
	submitBody   SubmitResponse
	submitDelay  time.Duration
	lastSubmit   *SubmitRequest
	submitCalled int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/blank_api_obtener_cuotas/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body := f.fetchBody
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/blank_api_registrar_pago/", func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.lastSubmit = &req
		f.submitCalled++
		delay := f.submitDelay
		body := f.submitBody
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	return mux
}

func dayOffset(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func defaultFetchBody(transferMode bool) FetchResponse {
	return FetchResponse{
		Success: true,
		Inquilino: TenantPayload{
			Nombre:     "Gomez",
			Propiedad:  "Depto 2B",
			Tipo:       "vivienda",
			Cuit:       "27-22222222-3",
			DeudaTotal: dec(2300),
		},
		Cuotas: []InstallmentPayload{
			{ID: 1, IDDetalle: 11, Periodo: "2024-01", Concepto: "alquiler", Importe: dec(1000), FechaVencimiento: dayOffset(-30), IDTarifa: 7},
			{ID: 2, IDDetalle: 12, Periodo: "2024-02", Concepto: "alquiler", Importe: dec(1000), FechaVencimiento: dayOffset(30), IDTarifa: 8},
			{ID: 3, IDDetalle: 13, Periodo: "2024-02", Concepto: "expensas", Importe: dec(300), FechaVencimiento: dayOffset(30), IDTarifa: 9},
		},
		EsTransferencia: transferMode,
	}
}

func newTestService(t *testing.T, backend *fakeBackend) (*SessionService, func()) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	svc := NewSessionService(NewBillingServiceWithBase(srv.URL), nil)
	return svc, srv.Close
}

func TestOpen_PreselectsOverdueAtFullAmount(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(false)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "")
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusReady, session.Status)
	assert.Equal(t, "cajeroSYS", session.Operator, "operator falls back to the default")
	assert.Equal(t, "Gomez", session.Tenant.Name)
	require.Len(t, session.Installments, 3)

	overdue := session.Installments[0]
	assert.True(t, overdue.Overdue)
	assert.True(t, overdue.Selected)
	assert.True(t, overdue.AmountToPay.Equal(dec(1000)))

	upcoming := session.Installments[1]
	assert.False(t, upcoming.Overdue)
	assert.False(t, upcoming.Selected)
	assert.True(t, upcoming.AmountToPay.IsZero())
}

func TestOpen_FetchFailureLeavesNoSession(t *testing.T) {
	backend := &fakeBackend{fetchBody: FetchResponse{Success: false, Message: "sin deuda"}}
	svc, done := newTestService(t, backend)
	defer done()

	_, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sin deuda")
}

func TestSetBucket_DistributesAndTagsMethod(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(false)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)

	session, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "1200")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentMethodCash, session.ActiveMethod)
	assert.True(t, session.Payments.Cash.Equal(dec(1200)))
	assert.True(t, session.Installments[0].AmountToPay.Equal(dec(1000)))
	assert.True(t, session.Installments[1].AmountToPay.Equal(dec(200)))
	assert.False(t, session.Installments[2].Selected)
}

func TestSetBucket_ModeGate(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(true)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)
	assert.True(t, session.TransferMode)

	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "500")
	assert.ErrorIs(t, err, ErrMethodNotAllowed)

	session, err = svc.SetBucket(session.ID, models.PaymentMethodTransfer, "500")
	require.NoError(t, err)
	assert.True(t, session.Payments.Transfer.Equal(dec(500)))

	// Check and withholding stay usable regardless of mode.
	_, err = svc.SetBucket(session.ID, models.PaymentMethodCheck, "100")
	require.NoError(t, err)

	_, err = svc.SetBucket(session.ID, "DEBITO", "100")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestToggle_CascadeThroughService(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(false)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)

	// Select the second-period rent (eligible: first-period rent is
	// pre-selected as overdue), then drop the first one.
	session, err = svc.ToggleInstallment(session.ID, 2, true)
	require.NoError(t, err)
	assert.True(t, session.Installments[1].Selected)

	session, err = svc.ToggleInstallment(session.ID, 1, false)
	require.NoError(t, err)
	assert.False(t, session.Installments[0].Selected)
	assert.False(t, session.Installments[1].Selected, "cascade deselects the later period")
	assert.True(t, session.Installments[1].AmountToPay.IsZero())
}

func TestPayAll_FillsActiveBucket(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(true)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)

	session, err = svc.PayAll(session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentMethodTransfer, session.ActiveMethod)
	assert.True(t, session.Payments.Transfer.Equal(dec(2300)))
	assert.True(t, session.Payments.Cash.IsZero())
	assert.True(t, session.Payments.Check.IsZero())
	assert.True(t, session.Payments.Withholding.IsZero())
	for _, inst := range session.Installments {
		assert.True(t, inst.Selected)
		assert.True(t, inst.AmountToPay.Equal(inst.AmountDue))
	}
}

func TestSubmit_GateRejectsMismatch(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(false)}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)

	// Overdue pre-selection gives totalDue 1000 with nothing paid in.
	_, err = svc.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrPaymentMismatch)
	assert.Zero(t, backend.submitCalled)

	// Zero everything: difference is 0 but so is totalDue.
	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "0")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrPaymentMismatch)
}

func TestSubmit_Success(t *testing.T) {
	backend := &fakeBackend{
		fetchBody:  defaultFetchBody(false),
		submitBody: SubmitResponse{Success: true, Message: "ok", NroComprobante: 5501, PagoTotal: dec(1000)},
	}
	svc, done := newTestService(t, backend)
	defer done()

	var hookReceipt *models.Receipt
	svc.Hooks.OnSuccess = func(_ *models.Session, r models.Receipt) {
		hookReceipt = &r
	}

	session, err := svc.Open(context.Background(), 42, "2024-03-01", "cajero1")
	require.NoError(t, err)

	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "1000")
	require.NoError(t, err)

	session, err = svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusReady, session.Status)
	assert.Equal(t, models.SubmitOutcomeSuccess, session.LastOutcome)
	require.NotNil(t, session.LastReceipt)
	assert.Equal(t, 5501, session.LastReceipt.Number)

	require.NotNil(t, hookReceipt)
	assert.Equal(t, 5501, hookReceipt.Number)

	// Ledger and entry are kept after success by default.
	assert.True(t, session.Payments.Cash.Equal(dec(1000)))
	assert.True(t, session.Installments[0].Selected)

	// The forwarded request carries only the selected installments and the
	// reference date.
	require.NotNil(t, backend.lastSubmit)
	assert.Equal(t, 42, backend.lastSubmit.IDWork)
	assert.Equal(t, "cajero1", backend.lastSubmit.Usuario)
	assert.Equal(t, "2024-03-01", backend.lastSubmit.FechaTransferencia)
	require.Len(t, backend.lastSubmit.Cuotas, 1)
	assert.Equal(t, 7, backend.lastSubmit.Cuotas[0].IDTarifa)
}

func TestSubmit_ResetAfterSuccess(t *testing.T) {
	backend := &fakeBackend{
		fetchBody:  defaultFetchBody(false),
		submitBody: SubmitResponse{Success: true, NroComprobante: 1, PagoTotal: dec(1000)},
	}
	svc, done := newTestService(t, backend)
	defer done()
	svc.ResetAfterSuccess = true

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)
	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "1000")
	require.NoError(t, err)

	session, err = svc.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.True(t, session.Payments.Total().IsZero())
	for _, inst := range session.Installments {
		assert.False(t, inst.Selected)
		assert.True(t, inst.AmountToPay.IsZero())
	}
	require.NotNil(t, session.LastReceipt, "receipt survives the reset")
}

func TestSubmit_BackendFailureKeepsState(t *testing.T) {
	backend := &fakeBackend{
		fetchBody:  defaultFetchBody(false),
		submitBody: SubmitResponse{Success: false, Message: "caja cerrada"},
	}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)
	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "1000")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), session.ID)
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Contains(t, err.Error(), "caja cerrada")

	// Ready for immediate retry with everything intact.
	session, err = svc.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusReady, session.Status)
	assert.Equal(t, models.SubmitOutcomeFailed, session.LastOutcome)
	assert.True(t, session.Payments.Cash.Equal(dec(1000)))
	assert.True(t, session.Installments[0].Selected)
}

func TestSubmit_SecondAttemptRejectedWhileInFlight(t *testing.T) {
	backend := &fakeBackend{
		fetchBody:   defaultFetchBody(false),
		submitBody:  SubmitResponse{Success: true, NroComprobante: 1, PagoTotal: dec(1000)},
		submitDelay: 300 * time.Millisecond,
	}
	svc, done := newTestService(t, backend)
	defer done()

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)
	_, err = svc.SetBucket(session.ID, models.PaymentMethodCash, "1000")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, submitErr := svc.Submit(context.Background(), session.ID)
		errCh <- submitErr
	}()

	time.Sleep(100 * time.Millisecond)
	_, err = svc.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	require.NoError(t, <-errCh)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 1, backend.submitCalled)
}

func TestCloseAndExpiry(t *testing.T) {
	backend := &fakeBackend{fetchBody: defaultFetchBody(false)}
	svc, done := newTestService(t, backend)
	defer done()

	var closed string
	svc.Hooks.OnClose = func(id string) { closed = id }

	session, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)

	require.NoError(t, svc.Close(session.ID))
	assert.Equal(t, session.ID, closed)
	assert.ErrorIs(t, svc.Close(session.ID), ErrSessionNotFound)

	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Expired sessions are swept by the janitor.
	svc.TTL = -time.Minute
	expired, err := svc.Open(context.Background(), 42, "", "cajero1")
	require.NoError(t, err)
	svc.evictExpired()
	_, err = svc.Get(expired.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
