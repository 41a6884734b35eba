package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/config"
	"github.com/you/storefront/internal/infrastructure/auth"
	"github.com/you/storefront/internal/infrastructure/database"
	"github.com/you/storefront/internal/infrastructure/notifications"
	"github.com/you/storefront/internal/infrastructure/repositories"
	"github.com/you/storefront/internal/logger"
	"github.com/you/storefront/internal/services"
)

// Container holds all dependencies of the stub backend
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	UserRepo    domain.UserRepository
	SessionRepo domain.SessionRepository

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	OTPSvc          domain.OTPService
	AccountSvc      domain.AccountService
	Audit           domain.AuditLogger
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, log *zap.Logger) (*Container, error) {
	container := &Container{Config: cfg, Logger: log}

	// Initialize infrastructure
	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	container.initRedis()

	// Initialize repositories
	container.initRepositories()

	// Initialize services
	container.initServices()

	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	c.DB = db
	return nil
}

func (c *Container) initRedis() {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.RefreshTTL)
}

func (c *Container) initServices() {
	c.PasswordSvc = auth.NewPasswordService(c.Config.BcryptCost)
	c.TokenSvc = auth.NewJWTService(
		c.Config.JWTSecret,
		c.Config.JWTIssuer,
		c.Config.AccessTTL,
		c.Config.RefreshTTL,
	)

	// Real SMS only when Twilio is configured; the console notifier keeps
	// local development self-contained.
	if c.Config.TwilioSID != "" && c.Config.TwilioToken != "" {
		c.NotificationSvc = notifications.NewTwilioService(
			c.Config.TwilioSID,
			c.Config.TwilioToken,
			c.Config.TwilioFrom,
		)
	} else {
		c.NotificationSvc = notifications.NewConsoleService(c.Logger)
	}

	otpConfig := services.OTPConfig{
		Length:       c.Config.OTPLength,
		TTL:          c.Config.OTPTTL,
		MaxAttempts:  c.Config.OTPMaxAttempts,
		ResendWindow: c.Config.OTPResendWindow,
	}
	c.OTPSvc = services.NewOTPService(c.NotificationSvc, c.RedisClient, otpConfig)

	c.AccountSvc = services.NewAccountService(
		c.UserRepo,
		c.SessionRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.OTPSvc,
		c.Config.AccessTTL,
		c.Config.RefreshTTL,
	)

	c.Audit = logger.NewAuditLogger(c.Logger)
}
