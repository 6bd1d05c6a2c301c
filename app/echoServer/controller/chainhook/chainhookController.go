package chainhook

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	rs "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/receipt"
)

type Controller struct {
	Svc rs.Service
	Log *slog.Logger
}

// POST /v1/chain/transfers
func (h *Controller) HandleTransfer(c echo.Context) error {
	sig := c.Request().Header.Get("X-Gateway-Signature")
	raw, _ := io.ReadAll(c.Request().Body)

	if err := h.Svc.HandleNativeTransfer(c.Request().Context(), sig, raw); err != nil {
		h.Log.Error("transfer hook error", "err", err)
		switch rs.Code(err) {
		case rs.ErrInvalidSignature:
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": rs.ErrInvalidSignature})
		case rs.ErrInvalidCall, rs.ErrInvalidAmount, rs.ErrInvalidAddress:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": rs.Code(err)})
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "transfer rejected"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}

// POST /v1/chain/erc721-received
func (h *Controller) HandleAssetReceipt(c echo.Context) error {
	sig := c.Request().Header.Get("X-Gateway-Signature")
	raw, _ := io.ReadAll(c.Request().Body)

	selector, err := h.Svc.HandleAssetReceipt(c.Request().Context(), sig, raw)
	if err != nil {
		h.Log.Error("receipt hook error", "err", err)
		if rs.Code(err) == rs.ErrInvalidSignature {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": rs.ErrInvalidSignature})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "receipt rejected"})
	}
	return c.JSON(http.StatusOK, echo.Map{"selector": selector})
}
