package payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/auth"
	"github.com/careportal/careportal/pkg/pagination"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes wires the authenticated payment endpoints. The gateway
// callback is registered separately because it arrives unauthenticated.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/payments", h.ListPayments)
	api.GET("/payments/:id", h.GetPayment)
	api.GET("/bills/:id/payments", h.ListByBill)

	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/payments", h.InitiatePayment)
}

// RegisterCallbackRoutes attaches the gateway-facing webhook.
func (h *Handler) RegisterCallbackRoutes(g *echo.Group) {
	g.POST("/payments/callback", h.GatewayCallback)
}

func (h *Handler) InitiatePayment(c echo.Context) error {
	var req InitiateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	p, presentation, err := h.svc.InitiatePayment(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"payment":  p,
		"checkout": presentation,
	})
}

// GatewayCallback receives the simulator's (or a real gateway's) outcome
// report for a pending transaction.
func (h *Handler) GatewayCallback(c echo.Context) error {
	var body struct {
		TransactionID   string  `json:"transaction_id"`
		Status          string  `json:"status"`
		GatewayResponse *string `json:"gateway_response,omitempty"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}
	ctx := c.Request().Context()
	p, err := h.svc.ReportOutcome(ctx, body.TransactionID, body.Status, body.GatewayResponse)
	if errors.Is(err, errs.ErrAlreadyFinalized) {
		// Gateways redeliver callbacks; a non-2xx would make them retry
		// forever. Acknowledge and report the settled state.
		h.log.Info().Str("transaction_id", body.TransactionID).Str("status", body.Status).
			Msg("callback for finalized payment ignored")
		p, err = h.svc.GetByTransactionID(ctx, body.TransactionID)
	}
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	p, err := h.svc.GetPayment(ctx, id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && p.PatientID != auth.UserIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "payment belongs to another patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByBill(c echo.Context) error {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListByBill(c.Request().Context(), billID)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// ListPayments returns the caller's own payments; staff can list any
// patient's via the patient_id query parameter.
func (h *Handler) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()
	patientID := auth.UserIDFromContext(ctx)
	if auth.RoleFromContext(ctx) != auth.RolePatient {
		if pid := c.QueryParam("patient_id"); pid != "" {
			parsed, err := uuid.Parse(pid)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
			}
			patientID = parsed
		}
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(ctx, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
