package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"caja_app_echo/internal/caja"
	"caja_app_echo/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrMethodNotAllowed = errors.New("payment method not allowed in current mode")
	ErrInvalidMethod    = errors.New("unknown payment method")
	ErrPaymentMismatch  = errors.New("paid amount does not match total due")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrSubmitFailed     = errors.New("payment registration failed")
)

const (
	fetchCacheTTL   = 30 * time.Second
	submitLockTTL   = 30 * time.Second
	defaultTTL      = 30 * time.Minute
	defaultOperator = "cajeroSYS"
)

// SessionHooks let the presentation shell react to session lifecycle events
// (print a receipt, close the host tab) without the core knowing how.
type SessionHooks struct {
	OnSuccess func(session *models.Session, receipt models.Receipt)
	OnClose   func(sessionID string)
}

type sessionState struct {
	mu      sync.Mutex
	session *models.Session
}

// SessionService owns the in-memory cashier sessions: it loads a tenant's
// installments through the billing gateway, applies every screen mutation
// under the session lock, enforces the submission gate and forwards the
// payment. Sessions expire after TTL of inactivity.
type SessionService struct {
	billing *BillingService
	cache   *RedisCache // optional, may be nil

	// Hooks and ResetAfterSuccess are wired once at startup, before Serve.
	Hooks             SessionHooks
	ResetAfterSuccess bool
	TTL               time.Duration

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewSessionService(billing *BillingService, cache *RedisCache) *SessionService {
	return &SessionService{
		billing:  billing,
		cache:    cache,
		TTL:      defaultTTL,
		sessions: make(map[string]*sessionState),
	}
}

// Open creates a session for a work id, fetches the installment ledger and
// returns the ready session. Overdue installments arrive pre-selected at
// their full amount; the payment-mode flag decides which of cash/transfer is
// usable. A fetch failure leaves no session behind, so the shell can simply
// retry by re-navigating.
func (s *SessionService) Open(ctx context.Context, workID int, fecha, usuario string) (*models.Session, error) {
	if usuario == "" {
		usuario = defaultOperator
	}

	resp, err := s.fetch(ctx, workID, fecha)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:           uuid.NewString(),
		WorkID:       workID,
		Operator:     usuario,
		RefDate:      fecha,
		Status:       models.SessionStatusReady,
		TransferMode: resp.EsTransferencia,
		Tenant: models.Tenant{
			Name:      resp.Inquilino.Nombre,
			Property:  resp.Inquilino.Propiedad,
			Type:      resp.Inquilino.Tipo,
			TaxID:     resp.Inquilino.Cuit,
			DueDay:    resp.Inquilino.DiaVencimiento,
			TotalDebt: resp.Inquilino.DeudaTotal,
		},
		Installments: buildLedger(resp.Cuotas, now),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.TTL),
	}

	// Establishing the mode forces the inactive bucket of the pair to zero.
	if session.TransferMode {
		session.Payments.Cash = decimal.Zero
	} else {
		session.Payments.Transfer = decimal.Zero
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionState{session: session}
	s.mu.Unlock()

	return session.Clone(), nil
}

func (s *SessionService) fetch(ctx context.Context, workID int, fecha string) (*FetchResponse, error) {
	if s.cache == nil {
		return s.billing.FetchInstallments(ctx, workID, fecha)
	}
	key := fmt.Sprintf("caja:cuotas:%d:%s", workID, fecha)
	return GetOrSet(s.cache, ctx, key, fetchCacheTTL, func() (*FetchResponse, error) {
		return s.billing.FetchInstallments(ctx, workID, fecha)
	})
}

// buildLedger converts the wire installments, deriving Overdue once against
// the reference day and pre-selecting overdue installments at full amount.
func buildLedger(cuotas []InstallmentPayload, now time.Time) []models.Installment {
	ledger := make([]models.Installment, 0, len(cuotas))
	for _, c := range cuotas {
		overdue := caja.IsOverdue(c.FechaVencimiento, now)

		amountToPay := decimal.Zero
		if overdue {
			amountToPay = c.Importe
		}

		ledger = append(ledger, models.Installment{
			ID:             c.ID,
			DetailID:       c.IDDetalle,
			Period:         c.Periodo,
			Concept:        c.Concepto,
			AmountDue:      c.Importe,
			OriginalAmount: c.ImporteOriginal,
			Interest:       c.Interes,
			AmountToPay:    amountToPay,
			Selected:       overdue,
			DueDate:        c.FechaVencimiento,
			Overdue:        overdue,
			TariffID:       c.IDTarifa,
		})
	}
	return ledger
}

// Get returns a snapshot of the session.
func (s *SessionService) Get(id string) (*models.Session, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session.Clone(), nil
}

// SetBucket parses a raw amount into the given payment bucket, tags it as the
// active method and re-runs the automatic distribution over the ledger.
// Editing the inactive one of cash/transfer is rejected without state change.
func (s *SessionService) SetBucket(id string, method models.PaymentMethod, raw string) (*models.Session, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	return s.update(id, func(session *models.Session) error {
		if method == models.PaymentMethodCash && session.TransferMode {
			return ErrMethodNotAllowed
		}
		if method == models.PaymentMethodTransfer && !session.TransferMode {
			return ErrMethodNotAllowed
		}

		session.Payments.Set(method, caja.ParseBucketAmount(raw))
		session.ActiveMethod = method
		caja.Distribute(session.Installments, session.Payments.Total())
		return nil
	})
}

// SetInstallmentAmount is the manual override path: the entered amount lands
// on that installment as-is, with no clamp and no redistribution.
func (s *SessionService) SetInstallmentAmount(id string, installmentID int, raw string) (*models.Session, error) {
	return s.update(id, func(session *models.Session) error {
		caja.SetAmount(session.Installments, installmentID, caja.ParseManualAmount(raw))
		return nil
	})
}

// ToggleInstallment selects or deselects one installment. An ineligible
// selection is silently ignored; a deselection cascades to same-concept
// later periods.
func (s *SessionService) ToggleInstallment(id string, installmentID int, selected bool) (*models.Session, error) {
	return s.update(id, func(session *models.Session) error {
		caja.Toggle(session.Installments, installmentID, selected)
		return nil
	})
}

// PayAll selects every installment at full amount and loads the grand total
// into the active-mode bucket, zeroing the other three.
func (s *SessionService) PayAll(id string) (*models.Session, error) {
	return s.update(id, func(session *models.Session) error {
		total := caja.PayAll(session.Installments)

		if session.TransferMode {
			session.Payments = models.PaymentEntry{Transfer: total}
			session.ActiveMethod = models.PaymentMethodTransfer
		} else {
			session.Payments = models.PaymentEntry{Cash: total}
			session.ActiveMethod = models.PaymentMethodCash
		}
		return nil
	})
}

// Submit runs the submission gate and, when it passes, registers the payment
// with the billing backend. Failure keeps the ledger and payment entry
// intact so the cashier can retry immediately.
func (s *SessionService) Submit(ctx context.Context, id string) (*models.Session, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	session := st.session

	if session.Status == models.SessionStatusSubmitting {
		st.mu.Unlock()
		return nil, ErrSubmitInFlight
	}

	totalDue := caja.TotalDue(session.Installments)
	if !caja.Difference(session.Payments, session.Installments).IsZero() || !totalDue.GreaterThan(decimal.Zero) {
		st.mu.Unlock()
		return nil, ErrPaymentMismatch
	}

	lockKey := fmt.Sprintf("caja:submit:%d", session.WorkID)
	if s.cache != nil {
		ok, lockErr := s.cache.AcquireLock(ctx, lockKey, submitLockTTL)
		if lockErr != nil {
			log.Printf("submit lock unavailable, proceeding without it: %v", lockErr)
		} else if !ok {
			st.mu.Unlock()
			return nil, ErrSubmitInFlight
		}
	}

	req := buildSubmitRequest(session)
	session.Status = models.SessionStatusSubmitting
	session.ExpiresAt = time.Now().Add(s.TTL)
	st.mu.Unlock()

	resp, err := s.billing.RegisterPayment(ctx, req)

	st.mu.Lock()
	defer st.mu.Unlock()
	session.Status = models.SessionStatusReady

	if s.cache != nil {
		if unlockErr := s.cache.ReleaseLock(ctx, lockKey); unlockErr != nil {
			log.Printf("failed to release submit lock: %v", unlockErr)
		}
	}

	if err != nil {
		session.LastOutcome = models.SubmitOutcomeFailed
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if !resp.Success {
		session.LastOutcome = models.SubmitOutcomeFailed
		msg := resp.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, fmt.Errorf("%w: %s", ErrSubmitFailed, msg)
	}

	receipt := models.Receipt{
		Number:    resp.NroComprobante,
		TotalPaid: resp.PagoTotal,
		Message:   resp.Message,
	}
	session.LastOutcome = models.SubmitOutcomeSuccess
	session.LastReceipt = &receipt

	if s.Hooks.OnSuccess != nil {
		s.Hooks.OnSuccess(session.Clone(), receipt)
	}

	if s.ResetAfterSuccess {
		resetSession(session)
	}

	return session.Clone(), nil
}

func buildSubmitRequest(session *models.Session) *SubmitRequest {
	var cuotas []SubmitInstallment
	for _, inst := range session.Installments {
		if !inst.Selected {
			continue
		}
		cuotas = append(cuotas, SubmitInstallment{
			IDTarifa: inst.TariffID,
			Periodo:  inst.Period,
			Importe:  inst.AmountToPay,
		})
	}

	return &SubmitRequest{
		IDWork:             session.WorkID,
		Efectivo:           session.Payments.Cash,
		Transferencia:      session.Payments.Transfer,
		Cheque:             session.Payments.Check,
		Retencion:          session.Payments.Withholding,
		Cuotas:             cuotas,
		FechaTransferencia: session.RefDate,
		Usuario:            session.Operator,
	}
}

func resetSession(session *models.Session) {
	session.Payments = models.PaymentEntry{}
	session.ActiveMethod = ""
	for i := range session.Installments {
		session.Installments[i].Selected = false
		session.Installments[i].AmountToPay = decimal.Zero
	}
}

// Close tears the session down and notifies the shell.
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if s.Hooks.OnClose != nil {
		s.Hooks.OnClose(id)
	}
	return nil
}

// StartJanitor evicts expired sessions until ctx is done.
func (s *SessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *SessionService) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.sessions {
		if now.After(st.session.ExpiresAt) {
			delete(s.sessions, id)
			log.Printf("session %s expired", id)
		}
	}
}

func (s *SessionService) state(id string) (*sessionState, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

// update runs fn on the session under its lock, refreshes the expiry and
// returns a snapshot. Mutations are rejected while a submission is in flight.
func (s *SessionService) update(id string, fn func(*models.Session) error) (*models.Session, error) {
	st, err := s.state(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session.Status == models.SessionStatusSubmitting {
		return nil, ErrSubmitInFlight
	}

	if err := fn(st.session); err != nil {
		return nil, err
	}
	st.session.ExpiresAt = time.Now().Add(s.TTL)
	return st.session.Clone(), nil
}
