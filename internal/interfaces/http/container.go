// Package http wires the billing application into a gin engine.
package http

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/infrastructure/config"
	"github.com/dukapos/dukapos/internal/infrastructure/pubsub"
	"github.com/dukapos/dukapos/internal/infrastructure/ratelimit"
	"github.com/dukapos/dukapos/internal/infrastructure/repository"
	accessHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/access"
	auditHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/audit"
	billingeventHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/billingevent"
	planHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/plan"
	subscriptionHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/subscription"
	usageHandler "github.com/dukapos/dukapos/internal/interfaces/http/handlers/usage"
	"github.com/dukapos/dukapos/internal/interfaces/http/middleware"
	"github.com/dukapos/dukapos/internal/interfaces/http/routes"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

// Container holds the wired application. The scheduler reuses the batch
// use cases so HTTP and scheduled paths share one code path.
type Container struct {
	Engine *gin.Engine

	ApplyEventsUC *usecases.ApplyBillingEventsUseCase
	EvaluateUC    *usecases.EvaluateSubscriptionsUseCase
	AuditService  *usecases.AuditService
}

// NewContainer wires repositories, use cases, handlers, and routes.
// redisClient may be nil; change notifications and webhook rate limiting
// are then disabled.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) *Container {
	subscriptionRepo := repository.NewSubscriptionRepository(db, log)
	planRepo := repository.NewPlanRepository(db, log)
	eventRepo := repository.NewBillingEventRepository(db, log)
	tenants := repository.NewTenantDirectory(db, log)

	clock := usecases.SystemClock{}

	var notifier usecases.SubscriptionChangeNotifier = usecases.NoopNotifier{}
	if redisClient != nil {
		notifier = pubsub.NewRedisSubscriptionChangeBus(redisClient, log)
	}

	upgradeTTL := time.Duration(cfg.Billing.PendingUpgradeTTLHours) * time.Hour
	recordTimeout := time.Duration(cfg.Billing.AuditRecordTimeoutSecs) * time.Second

	createUC := usecases.NewCreateSubscriptionUseCase(subscriptionRepo, planRepo, tenants, notifier, clock, log)
	getUC := usecases.NewGetSubscriptionUseCase(subscriptionRepo, log)
	cancelUC := usecases.NewCancelSubscriptionUseCase(subscriptionRepo, notifier, clock, log)
	reactivateUC := usecases.NewReactivateSubscriptionUseCase(subscriptionRepo, planRepo, notifier, clock, log)
	upgradeUC := usecases.NewRequestPlanUpgradeUseCase(subscriptionRepo, planRepo, clock, upgradeTTL, log)

	createPlanUC := usecases.NewCreatePlanUseCase(planRepo, log)
	updatePlanUC := usecases.NewUpdatePlanUseCase(planRepo, log)
	listPlansUC := usecases.NewListPlansUseCase(planRepo, log)

	recordEventUC := usecases.NewRecordBillingEventUseCase(eventRepo, tenants, clock, log)
	applyEventsUC := usecases.NewApplyBillingEventsUseCase(subscriptionRepo, eventRepo, notifier, clock, log)
	evaluateUC := usecases.NewEvaluateSubscriptionsUseCase(subscriptionRepo, eventRepo, notifier, clock, cfg.Billing.GracePeriodDays, log)

	accessService := usecases.NewAccessService(subscriptionRepo, clock, cfg.Billing.PaymentURL, log)
	usageService := usecases.NewUsageService(subscriptionRepo, planRepo, log)
	auditService := usecases.NewAuditService(
		subscriptionRepo, planRepo, tenants, notifier, clock,
		cfg.Billing.GracePeriodDays, cfg.Billing.DefaultPlanCode, recordTimeout, log,
	)

	accessGate := middleware.NewAccessGateMiddleware(accessService, log)

	var webhookLimiter *middleware.RateLimiter
	if redisClient != nil {
		webhookLimiter = middleware.NewRateLimiter(
			ratelimit.NewRedisLimiter(redisClient), ratelimit.WebhookPolicy, log)
	}

	registerValidations()

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	routes.SetupPlanRoutes(engine, &routes.PlanRouteConfig{
		PlanHandler: planHandler.NewHandler(createPlanUC, updatePlanUC, listPlansUC, log),
	})
	routes.SetupSubscriptionRoutes(engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: subscriptionHandler.NewHandler(createUC, getUC, cancelUC, reactivateUC, upgradeUC, log),
	})
	routes.SetupAccessRoutes(engine, &routes.AccessRouteConfig{
		AccessHandler: accessHandler.NewHandler(accessService, log),
	})
	routes.SetupUsageRoutes(engine, &routes.UsageRouteConfig{
		UsageHandler: usageHandler.NewHandler(usageService, log),
		AccessGate:   accessGate,
	})
	routes.SetupWebhookRoutes(engine, &routes.WebhookRouteConfig{
		BillingEventHandler: billingeventHandler.NewHandler(recordEventUC, applyEventsUC, log),
		RateLimiter:         webhookLimiter,
	})
	routes.SetupAuditRoutes(engine, &routes.AuditRouteConfig{
		AuditHandler: auditHandler.NewHandler(auditService, log),
	})

	return &Container{
		Engine:        engine,
		ApplyEventsUC: applyEventsUC,
		EvaluateUC:    evaluateUC,
		AuditService:  auditService,
	}
}

var planCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plancode", func(fl validator.FieldLevel) bool {
			return planCodePattern.MatchString(fl.Field().String())
		})
	}
}
