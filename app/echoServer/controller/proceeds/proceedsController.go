package proceeds

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	ps "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/proceeds"
)

type Controller struct {
	Svc ps.Service
	V   *validator.Validate
	Log *slog.Logger
}

func caller(c echo.Context) model.Address {
	addr, _ := c.Get("caller_addr").(string)
	return model.Address(addr)
}

// GET /v1/proceeds
func (h *Controller) List(c echo.Context) error {
	balances, err := h.Svc.AllProceeds(c.Request().Context(), caller(c))
	if err != nil {
		h.Log.Error("list proceeds", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	out := make([]echo.Map, 0, len(balances))
	for _, p := range balances {
		out = append(out, echo.Map{
			"pay_token": p.PayToken,
			"balance":   p.Balance.String(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/proceeds/:payToken
func (h *Controller) Get(c echo.Context) error {
	payToken := model.Address(c.Param("payToken"))
	if !payToken.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid pay token"})
	}
	bal, err := h.Svc.Proceeds(c.Request().Context(), caller(c), payToken)
	if err != nil {
		h.Log.Error("get proceeds", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"pay_token": payToken.Normalize(),
		"balance":   bal.String(),
	})
}

// POST /v1/proceeds/withdrawals
func (h *Controller) Withdraw(c echo.Context) error {
	var req WithdrawReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  echo.Map{"pay_token": "required, wallet address"},
		})
	}

	amount, err := h.Svc.Withdraw(c.Request().Context(), caller(c), model.Address(req.PayToken))
	if err != nil {
		h.Log.Error("withdraw proceeds", "err", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "withdrawal failed, balance restored"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"pay_token": model.Address(req.PayToken).Normalize(),
		"amount":    amount.String(),
	})
}
