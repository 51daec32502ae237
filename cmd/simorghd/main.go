package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/simorgh/adapters/dispatch"
	"github.com/layer-3/simorgh/adapters/events"
	"github.com/layer-3/simorgh/adapters/identity"
	"github.com/layer-3/simorgh/adapters/ratelimit"
	"github.com/layer-3/simorgh/adapters/store"
	"github.com/layer-3/simorgh/adapters/tokenizer"
	"github.com/layer-3/simorgh/config"
	"github.com/layer-3/simorgh/ports"
	"github.com/layer-3/simorgh/service"
	"github.com/layer-3/simorgh/transport/http"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	signKey, err := loadSigningKey(cfg)
	if err != nil {
		log.Fatalf("Failed to load signing key: %v", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	jwtTokenizer := tokenizer.NewJWTTokenizer(cfg.SigningKeyID, signKey, nil)

	var (
		otpStore      ports.OTPStore
		revocations   ports.RevocationStore
		limiter       ports.RateLimiter
		identityStore ports.IdentityStore
		dispatcher    ports.MessageDispatcher
		eventPub      ports.EventPublisher
	)

	if cfg.DevMode {
		log.Println("dev mode: in-process stores, logged codes, no event stream")
		otpStore = store.NewMemoryOTPStore()
		revocations = store.NewMemoryRevocationStore()
		limiter = ratelimit.NewMemoryLimiter(cfg.OTPRequestLimit, cfg.OTPRequestWindow)
		identityStore = identity.NewMemoryStore()
		dispatcher = dispatch.NewLogDispatcher()
		eventPub = events.NewNoopPublisher()
	} else {
		logger := watermill.NewStdLogger(false, false)
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		otpStore = store.NewRedisOTPStore(redisClient)
		revocations = store.NewRedisRevocationStore(redisClient)
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.OTPRequestLimit, cfg.OTPRequestWindow)
		identityStore = identity.NewHTTPClient(cfg.IdentityURL, cfg.IdentityToken)
		dispatcher = dispatch.NewWatermillDispatcher(publisher)
		eventPub = events.NewWatermillPublisher(publisher)
	}

	otpManager := service.NewOTPManager(otpStore, limiter, dispatcher, cfg.OTPSalt, service.OTPConfig{})
	authService := service.NewAuthService(otpManager, jwtTokenizer, revocations, identityStore, eventPub)

	router := http.SetupRouter(authService)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadSigningKey parses the configured ES256 key, or generates an ephemeral
// one in dev mode. An ephemeral key invalidates all tokens on restart, which
// is acceptable only for local development.
func loadSigningKey(cfg *config.Config) (*ecdsa.PrivateKey, error) {
	if cfg.SigningKeyPEM == "" {
		if !cfg.DevMode {
			return nil, fmt.Errorf("no signing key configured")
		}
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	block, _ := pem.Decode([]byte(cfg.SigningKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("signing key is not valid PEM")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse EC private key: %w", err)
	}
	return key, nil
}
