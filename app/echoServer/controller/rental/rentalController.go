package rental

import (
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	ms "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/marketplace"
)

type Controller struct {
	Svc ms.Service
	V   *validator.Validate
	Log *slog.Logger
}

func caller(c echo.Context) model.Address {
	addr, _ := c.Get("caller_addr").(string)
	return model.Address(addr)
}

// POST /v1/rentals
func (h *Controller) Rent(c echo.Context) error {
	var req RentItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	payment, ok := new(big.Int).SetString(req.Payment, 10)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payment"})
	}

	out, err := h.Svc.RentItem(c.Request().Context(), caller(c),
		model.Address(req.NftAddress), req.TokenID, req.Expires, model.Address(req.PayToken), payment)
	if err != nil {
		h.Log.Error("rent item", "err", err)
		switch ms.Code(err) {
		case ms.ErrNotListed:
			return c.JSON(http.StatusNotFound, echo.Map{"error": ms.ErrNotListed, "detail": ms.Detail(err)})
		case ms.ErrCurrentlyRented:
			return c.JSON(http.StatusConflict, echo.Map{"error": ms.ErrCurrentlyRented, "detail": ms.Detail(err)})
		case ms.ErrInvalidExpires, ms.ErrInvalidAmount, ms.ErrInvalidPayToken, ms.ErrInvalidNftAddress:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ms.Code(err), "detail": ms.Detail(err)})
		case ms.ErrInsufficientFunds:
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": ms.ErrInsufficientFunds, "detail": ms.Detail(err)})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"lessor":    out.Lessor,
		"renter":    out.Renter,
		"price":     out.Price.String(),
		"fee":       out.Fee.String(),
		"expires":   out.Expires,
		"pay_token": out.PayToken,
	})
}

// POST /v1/rentals/:nft/:tokenId/redeem
func (h *Controller) Redeem(c echo.Context) error {
	err := h.Svc.RedeemItem(c.Request().Context(), caller(c),
		model.Address(c.Param("nft")), c.Param("tokenId"))
	if err != nil {
		h.Log.Error("redeem item", "err", err)
		switch ms.Code(err) {
		case ms.ErrCurrentlyRented:
			return c.JSON(http.StatusConflict, echo.Map{"error": ms.ErrCurrentlyRented, "detail": ms.Detail(err)})
		case ms.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"error": ms.ErrNotOwner, "detail": ms.Detail(err)})
		case ms.ErrNotRedeemable:
			return c.JSON(http.StatusConflict, echo.Map{"error": ms.ErrNotRedeemable, "detail": ms.Detail(err)})
		case ms.ErrInvalidNftAddress:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ms.ErrInvalidNftAddress, "detail": ms.Detail(err)})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "redeemed"})
}
