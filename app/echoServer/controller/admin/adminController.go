package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	as "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/admin"
)

type Controller struct {
	Svc as.Service
	V   *validator.Validate
	Log *slog.Logger
}

func caller(c echo.Context) model.Address {
	addr, _ := c.Get("caller_addr").(string)
	return model.Address(addr)
}

func fail(c echo.Context, log *slog.Logger, op string, err error) error {
	switch as.Code(err) {
	case as.ErrUnauthorized:
		return c.JSON(http.StatusForbidden, echo.Map{"error": as.ErrUnauthorized})
	case as.ErrInvalidAddress, as.ErrInvalidAmount:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": as.Code(err)})
	case as.ErrTokenEnabled:
		return c.JSON(http.StatusConflict, echo.Map{"error": as.ErrTokenEnabled})
	case as.ErrTokenDisabled:
		return c.JSON(http.StatusNotFound, echo.Map{"error": as.ErrTokenDisabled})
	default:
		log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// GET /v1/fees
func (h *Controller) GetFees(c echo.Context) error {
	bps, recipient, err := h.Svc.FeePolicy(c.Request().Context())
	if err != nil {
		h.Log.Error("get fee policy", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"platform_fee_bps": bps,
		"fee_recipient":    recipient,
	})
}

// PUT /v1/admin/platform-fee
func (h *Controller) SetPlatformFee(c echo.Context) error {
	var req SetPlatformFeeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": echo.Map{"platform_fee_bps": "gte 0"}})
	}
	if err := h.Svc.SetPlatformFee(c.Request().Context(), caller(c), req.PlatformFeeBps); err != nil {
		return fail(c, h.Log, "set platform fee", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"platform_fee_bps": req.PlatformFeeBps})
}

// PUT /v1/admin/fee-recipient
func (h *Controller) SetFeeRecipient(c echo.Context) error {
	var req SetFeeRecipientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": echo.Map{"fee_recipient": "required, wallet address"}})
	}
	if err := h.Svc.SetFeeRecipient(c.Request().Context(), caller(c), model.Address(req.FeeRecipient)); err != nil {
		return fail(c, h.Log, "set fee recipient", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fee_recipient": model.Address(req.FeeRecipient).Normalize()})
}

// GET /v1/pay-tokens
func (h *Controller) ListPayTokens(c echo.Context) error {
	tokens, err := h.Svc.PayTokens(c.Request().Context())
	if err != nil {
		h.Log.Error("list pay tokens", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": tokens})
}

// POST /v1/admin/pay-tokens
func (h *Controller) AddPayToken(c echo.Context) error {
	var req AddPayTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": echo.Map{"token": "required, wallet address"}})
	}
	if err := h.Svc.AddPayToken(c.Request().Context(), caller(c), model.Address(req.Token)); err != nil {
		return fail(c, h.Log, "add pay token", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": model.Address(req.Token).Normalize()})
}

// GET /v1/admin/events/:type
func (h *Controller) Events(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	evs, err := h.Svc.Events(c.Request().Context(), caller(c),
		model.EventType(c.Param("type")), limit)
	if err != nil {
		return fail(c, h.Log, "list events", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": evs})
}

// DELETE /v1/admin/pay-tokens/:token
func (h *Controller) RemovePayToken(c echo.Context) error {
	if err := h.Svc.RemovePayToken(c.Request().Context(), caller(c), model.Address(c.Param("token"))); err != nil {
		return fail(c, h.Log, "remove pay token", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
}
