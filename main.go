// Package main rent marketplace API.
//
// @title           NFT Rent Marketplace API
// @version         1.0
// @description     Peer-to-peer NFT rental marketplace engine (listings, rentals, proceeds).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer"
	adminctrl "github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/admin"
	chainhookctrl "github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/chainhook"
	listingctrl "github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/listing"
	proceedsctrl "github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/proceeds"
	rentalctrl "github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/controller/rental"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/app/echoServer/validation"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/config"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	chainrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/chain"
	eventrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/event"
	listingrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/listing"
	paytokenrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/paytoken"
	proceedsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/proceeds"
	settingsrepo "github.com/rentoken-xyz/rent-sell-nft-marketplace/repository/settings"
	adminsvc "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/admin"
	marketplacesvc "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/marketplace"
	proceedssvc "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/proceeds"
	receiptsvc "github.com/rentoken-xyz/rent-sell-nft-marketplace/service/receipt"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/util/database"
)

// defaultPlatformFeeBps seeds the fee policy on first boot (2.5%).
const defaultPlatformFeeBps = 250

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	market := model.Address(cfg.MarketAddress).Normalize()
	owner := model.Address(cfg.OwnerAddress).Normalize()
	if !market.Valid() || !owner.Valid() {
		log.Error("invalid MARKET_ADDRESS or OWNER_ADDRESS")
		os.Exit(1)
	}

	// DB: *sql.DB via pgx stdlib
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	lr := listingrepo.New(db)
	pr := proceedsrepo.New(db)
	tr := paytokenrepo.New(db)
	sr := settingsrepo.New(db)
	er := eventrepo.New(db)
	cr := chainrepo.NewHTTP(cfg.ChainGatewayURL, cfg.ChainGatewayKey, cfg.ChainHookSecret)

	// fee policy defaults to the engine owner as recipient
	if err := sr.Init(ctx, defaultPlatformFeeBps, owner); err != nil {
		log.Error("fee policy init failed", "err", err)
		os.Exit(1)
	}

	// services
	ms := marketplacesvc.New(db, lr, pr, tr, sr, er, cr, market)
	ps := proceedssvc.New(db, pr, er, cr, market)
	rs := receiptsvc.New(db, pr, er, cr)
	as := adminsvc.New(db, sr, tr, er, owner)

	// controllers
	v := validator.New()
	listingC := &listingctrl.Controller{Svc: ms, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: ms, V: v, Log: log}
	proceedsC := &proceedsctrl.Controller{Svc: ps, V: v, Log: log}
	adminC := &adminctrl.Controller{Svc: as, V: v, Log: log}
	chainhookC := &chainhookctrl.Controller{Svc: rs, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Listing:   listingC,
		Rental:    rentalC,
		Proceeds:  proceedsC,
		Admin:     adminC,
		ChainHook: chainhookC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
