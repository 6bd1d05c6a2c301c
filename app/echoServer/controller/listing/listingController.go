package listing

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

func status(code ms.ErrCode) int {
	switch code {
	case ms.ErrNotOwner:
		return http.StatusForbidden
	case ms.ErrAlreadyListed, ms.ErrCurrentlyRented, ms.ErrNotRedeemable:
		return http.StatusConflict
	case ms.ErrNotListed:
		return http.StatusNotFound
	case ms.ErrInsufficientFunds:
		return http.StatusPaymentRequired
	case ms.ErrNotApproved, ms.ErrInvalidExpires, ms.ErrInvalidAmount,
		ms.ErrInvalidPayToken, ms.ErrInvalidNftAddress:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, log *slog.Logger, op string, err error) error {
	code := ms.Code(err)
	if code == "" {
		log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(status(code), echo.Map{"error": code, "detail": ms.Detail(err)})
}

// POST /v1/listings
func (h *Controller) Create(c echo.Context) error {
	var req ListItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	price, ok := new(big.Int).SetString(req.PricePerSecond, 10)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid price_per_second"})
	}

	l, err := h.Svc.ListItem(c.Request().Context(), caller(c),
		model.Address(req.NftAddress), req.TokenID, req.Expires, price, model.Address(req.PayToken))
	if err != nil {
		return fail(c, h.Log, "list item", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": l})
}

// PUT /v1/listings/:nft/:tokenId
func (h *Controller) Update(c echo.Context) error {
	var req UpdateListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	price, ok := new(big.Int).SetString(req.PricePerSecond, 10)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid price_per_second"})
	}

	l, err := h.Svc.UpdateListing(c.Request().Context(), caller(c),
		model.Address(c.Param("nft")), c.Param("tokenId"), req.Expires, price, model.Address(req.PayToken))
	if err != nil {
		return fail(c, h.Log, "update listing", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": l})
}

// DELETE /v1/listings/:nft/:tokenId
func (h *Controller) Cancel(c echo.Context) error {
	err := h.Svc.CancelListing(c.Request().Context(), caller(c),
		model.Address(c.Param("nft")), c.Param("tokenId"))
	if err != nil {
		return fail(c, h.Log, "cancel listing", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "canceled"})
}

// GET /v1/listings/:nft/:tokenId
func (h *Controller) Get(c echo.Context) error {
	l, err := h.Svc.GetListing(c.Request().Context(),
		model.Address(c.Param("nft")), c.Param("tokenId"))
	if err != nil {
		return fail(c, h.Log, "get listing", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": l})
}
