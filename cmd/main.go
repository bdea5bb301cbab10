package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/fcl-gateway/internal/authz"
	"github.com/kollektive-hackathon/fcl-gateway/internal/cosign"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/keymgmt"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/config"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/firebase"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/flowchain"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/middleware"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/model"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/pubsub"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/walletapi"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/ws"
	"github.com/kollektive-hackathon/fcl-gateway/internal/session"
	wsroutes "github.com/kollektive-hackathon/fcl-gateway/internal/ws"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	setupViper()
	setupZerolog()
	cfg := config.Load()
	ctx := context.Background()

	pubsubClient := pubsub.InitPubSub(ctx, viper.GetString("GOOGLE_PROJECT_ID"))
	defer pubsubClient.Close()

	db := setupDb()
	apiRouter := setupApiRouter(ctx, cfg, db, pubsubClient)

	port := viper.GetString("PORT")
	server := &http.Server{
		Addr:         port,
		Handler:      apiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 10*time.Second,
	}

	log.Info().Msgf("Listening on %s", port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setupDb() *gorm.DB {
	dbUrl := viper.GetString("DB_URL")

	db, err := gorm.Open(postgres.Open(dbUrl), &gorm.Config{})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	if err := db.AutoMigrate(&model.CustodialWallet{}, &model.AuthorizationAttempt{}); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	sqlDb, _ := db.DB()

	sqlDb.SetMaxOpenConns(50)
	sqlDb.SetConnMaxLifetime(time.Minute * 10)

	return db
}

func setupApiRouter(ctx context.Context, cfg config.Config, db *gorm.DB, pubsubClient *pubsub.Client) *gin.Engine {
	apiRouter := gin.Default()
	middleware.RegisterGlobalMiddleware(apiRouter)
	routerGroup := apiRouter.Group("/fcl-api")

	chain, err := flowchain.NewClient(cfg.AccessNode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to access node")
	}

	keys, err := keymgmt.NewKMS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize KMS client")
	}

	registry := fcl.NewAddressRegistry(cfg.Network)
	for contract, address := range cfg.Contracts {
		registry.Register(contract, address)
	}

	allowedScripts, err := cosign.LoadAllowedScripts(cfg.AllowedScripts, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load cosign scripts")
	}

	hub := ws.NewNotificationHub()
	sessions := session.NewStore()

	wsroutes.RegisterRoutes(routerGroup, hub, sessions)
	authz.RegisterRoutesAndSubscriptions(ctx, routerGroup, authz.Dependencies{
		Config:     cfg,
		Wallet:     walletapi.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.Location),
		Chain:      chain,
		Sessions:   sessions,
		Hub:        hub,
		Registry:   registry,
		DB:         db,
		PubSub:     pubsubClient,
		Subscriber: pubsubClient,
	})
	cosign.RegisterRoutes(routerGroup, db, keys, firebase.InitFirebaseSdk(ctx), allowedScripts)

	return apiRouter
}

func setupViper() {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
	if err := viper.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("No .env file, using the environment only")
	}
}

func setupZerolog() {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
