package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/admin"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/chainhook"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/listing"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/proceeds"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/rental"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/jwtx"
)

type C struct {
	Listing   *listing.Controller
	Rental    *rental.Controller
	Proceeds  *proceeds.Controller
	Admin     *admin.Controller
	ChainHook *chainhook.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")

	// gateway callbacks (HMAC-verified, not JWT)
	pub.POST("/chain/transfers", c.ChainHook.HandleTransfer)
	pub.POST("/chain/erc721-received", c.ChainHook.HandleAssetReceipt)

	// read-only marketplace state
	pub.GET("/listings/:nft/:tokenId", c.Listing.Get)
	pub.GET("/fees", c.Admin.GetFees)
	pub.GET("/pay-tokens", c.Admin.ListPayTokens)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// wallet address extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			addr, err := jwtx.AddressFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("caller_addr", string(addr))
			return next(ctx)
		}
	})

	// Listings
	auth.POST("/listings", c.Listing.Create)
	auth.PUT("/listings/:nft/:tokenId", c.Listing.Update)
	auth.DELETE("/listings/:nft/:tokenId", c.Listing.Cancel)

	// Rentals
	auth.POST("/rentals", c.Rental.Rent)
	auth.POST("/rentals/:nft/:tokenId/redeem", c.Rental.Redeem)

	// Proceeds
	auth.GET("/proceeds", c.Proceeds.List)
	auth.GET("/proceeds/:payToken", c.Proceeds.Get)
	auth.POST("/proceeds/withdrawals", c.Proceeds.Withdraw)

	// Owner-only policy
	auth.PUT("/admin/platform-fee", c.Admin.SetPlatformFee)
	auth.PUT("/admin/fee-recipient", c.Admin.SetFeeRecipient)
	auth.POST("/admin/pay-tokens", c.Admin.AddPayToken)
	auth.DELETE("/admin/pay-tokens/:token", c.Admin.RemovePayToken)
	auth.GET("/admin/events/:type", c.Admin.Events)
}
