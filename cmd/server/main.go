package main // Entry point package

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/booking"
	"github.com/iliyamo/culture-marketplace/internal/config"
	"github.com/iliyamo/culture-marketplace/internal/database"
	"github.com/iliyamo/culture-marketplace/internal/fraud"
	"github.com/iliyamo/culture-marketplace/internal/handler"
	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/provider"
	"github.com/iliyamo/culture-marketplace/internal/queue"
	"github.com/iliyamo/culture-marketplace/internal/repository"
	"github.com/iliyamo/culture-marketplace/internal/router"
	"github.com/iliyamo/culture-marketplace/internal/search"
	"github.com/iliyamo/culture-marketplace/internal/sync"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when redis is unreachable

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	venueProviders := repository.NewVenueProviderRepo(db)
	catalog := repository.NewCatalogStore(db)
	bookings := repository.NewBookingRepo(db)
	fraudResults := repository.NewFraudRepo(db)
	offers := repository.NewOfferRepo(db)

	// Search index: AMQP fan-in, redis fan-out.
	indexer := search.NewAMQPIndexer(cfg.AMQPURL)
	var store search.DocumentStore
	if s := search.NewRedisStore(rdb); s != nil {
		store = s
		consumer := &queue.ReindexConsumer{URL: cfg.AMQPURL, Source: offers, Store: s}
		go consumer.Start()
	} else {
		logrus.Warn("redis unavailable; search index disabled")
	}

	// Sync core.
	orchestrator := &sync.Orchestrator{
		Catalog:        catalog,
		Indexer:        indexer,
		VenueProviders: venueProviders,
		LeaseTTL:       cfg.SyncLeaseTTL,
		PageLimit:      cfg.SyncPageLimit,
		MaxPages:       cfg.SyncMaxPages,
	}
	if lease := sync.NewRedisLease(rdb); lease != nil {
		orchestrator.Leases = lease
	}
	repairer := &sync.SiretRepairer{Catalog: catalog}

	newClient := func(p model.Provider) sync.ProviderClient {
		token := ""
		if p.AuthToken != nil {
			token = *p.AuthToken
		}
		return provider.NewAPIClient(p.Name, p.APIURL, token)
	}

	// Domain services.
	bookingSvc := booking.NewService(bookings)
	fraudSvc := &fraud.Service{Users: users, Results: fraudResults, Activator: users}

	// HTTP surface.
	e := echo.New()
	e.Validator = handler.NewValidator()
	authH := handler.NewAuthHandler(cfg, users, tokens)
	syncH := &handler.SyncHandler{
		VenueProviders: venueProviders,
		Venues:         venues,
		Orchestrator:   orchestrator,
		NewClient:      newClient,
	}
	repairH := &handler.RepairHandler{Venues: venues, Repairer: repairer}
	bookingH := &handler.BookingHandler{Service: bookingSvc, Bookings: bookings, Venues: venues}
	fraudH := &handler.FraudHandler{Users: users, Service: fraudSvc}
	searchH := &handler.SearchHandler{Store: store}

	router.RegisterRoutes(e, searchH)
	router.RegisterAuth(e, authH)
	router.RegisterPro(e, cfg.JWTSecret, syncH, repairH, bookingH, fraudH)
	router.RegisterBeneficiary(e, cfg.JWTSecret, bookingH)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
