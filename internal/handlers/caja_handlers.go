package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"caja_app_echo/internal/caja"
	"caja_app_echo/internal/middleware"
	"caja_app_echo/internal/models"
	"caja_app_echo/internal/services"
)

type CajaHandler struct {
	sessions *services.SessionService
}

func NewCajaHandler(sessions *services.SessionService) *CajaHandler {
	return &CajaHandler{sessions: sessions}
}

// OpenSession fetches the installment ledger for a work id and opens a
// cashier session over it.
func (h *CajaHandler) OpenSession(c echo.Context) error {
	var req OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id_work is required")
	}

	usuario := req.Usuario
	if usuario == "" {
		usuario = middleware.OperatorFromContext(c)
	}

	session, err := h.sessions.Open(c.Request().Context(), req.IDWork, req.Fecha, usuario)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to load tenant installments: "+err.Error())
	}

	return c.JSON(http.StatusCreated, buildSessionResponse(session))
}

// GetSession returns the full screen state snapshot.
func (h *CajaHandler) GetSession(c echo.Context) error {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// SetPayment writes a raw amount into one payment bucket and redistributes.
func (h *CajaHandler) SetPayment(c echo.Context) error {
	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	method := models.PaymentMethod(c.Param("method"))
	session, err := h.sessions.SetBucket(c.Param("id"), method, req.Value)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// SetInstallmentAmount is the manual per-installment amount edit.
func (h *CajaHandler) SetInstallmentAmount(c echo.Context) error {
	installmentID, err := strconv.Atoi(c.Param("installmentID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid installment ID")
	}

	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	session, err := h.sessions.SetInstallmentAmount(c.Param("id"), installmentID, req.Value)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// ToggleInstallment selects or deselects an installment.
func (h *CajaHandler) ToggleInstallment(c echo.Context) error {
	installmentID, err := strconv.Atoi(c.Param("installmentID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid installment ID")
	}

	var req ToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "selected is required")
	}

	session, err := h.sessions.ToggleInstallment(c.Param("id"), installmentID, *req.Selected)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// PayAll selects everything at full amount and fills the active bucket.
func (h *CajaHandler) PayAll(c echo.Context) error {
	session, err := h.sessions.PayAll(c.Param("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// Submit runs the gate and registers the payment with the billing backend.
func (h *CajaHandler) Submit(c echo.Context) error {
	session, err := h.sessions.Submit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, buildSessionResponse(session))
}

// CloseSession tears the session down.
func (h *CajaHandler) CloseSession(c echo.Context) error {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Register wires the caja routes onto a group.
func (h *CajaHandler) Register(g *echo.Group) {
	g.POST("/sessions", h.OpenSession)
	g.GET("/sessions/:id", h.GetSession)
	g.PUT("/sessions/:id/payments/:method", h.SetPayment)
	g.PUT("/sessions/:id/installments/:installmentID/amount", h.SetInstallmentAmount)
	g.POST("/sessions/:id/installments/:installmentID/toggle", h.ToggleInstallment)
	g.POST("/sessions/:id/pay-all", h.PayAll)
	g.POST("/sessions/:id/submit", h.Submit)
	g.DELETE("/sessions/:id", h.CloseSession)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	case errors.Is(err, services.ErrInvalidMethod):
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown payment method")
	case errors.Is(err, services.ErrMethodNotAllowed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Payment method not allowed in current mode")
	case errors.Is(err, services.ErrPaymentMismatch):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Paid amount does not match total due")
	case errors.Is(err, services.ErrSubmitInFlight):
		return echo.NewHTTPError(http.StatusConflict, "A submission is already in progress")
	case errors.Is(err, services.ErrSubmitFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// buildSessionResponse recomputes every derived value from the snapshot.
func buildSessionResponse(session *models.Session) SessionResponse {
	eligibility := caja.Eligibility(session.Installments)
	periods := caja.DistinctPeriods(session.Installments)
	withSelection := caja.PeriodsWithSelection(session.Installments, periods)

	views := make([]InstallmentView, len(session.Installments))
	for i, inst := range session.Installments {
		views[i] = InstallmentView{Installment: inst, Eligible: eligibility[i]}
	}

	return SessionResponse{
		ID:           session.ID,
		Status:       session.Status,
		Tenant:       session.Tenant,
		Operator:     session.Operator,
		TransferMode: session.TransferMode,
		CashEnabled:  !session.TransferMode,

		Installments: views,
		Payments:     session.Payments,
		ActiveMethod: session.ActiveMethod,

		TotalDue:   caja.TotalDue(session.Installments),
		TotalPaid:  session.Payments.Total(),
		Difference: caja.Difference(session.Payments, session.Installments),

		Periods:                 periods,
		PeriodsWithSelection:    withSelection,
		LastPeriodWithSelection: caja.LastPeriodWithSelection(withSelection),
		PeriodComplete:          caja.PeriodComplete(session.Installments, periods),

		LastOutcome: session.LastOutcome,
		LastReceipt: session.LastReceipt,
	}
}
