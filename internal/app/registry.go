package app

import (
	"database/sql"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/camera"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/events"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/messaging/kafka"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/recognition"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	directoryRepo := directory.NewRepository(gormDB)
	punchRepo := punch.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Pipeline core ---
	dispatcher := events.NewDispatcher()

	// live status feed; print and share dispatchers subscribe the same
	// way from their own processes via kafka
	dispatcher.Subscribe(events.PunchSubscriberFunc(func(e events.PunchConfirmedEvent) {
		zap.L().Named("punch.live").Info("punch confirmed",
			zap.String("employee", e.EmployeeName),
			zap.String("punch_type", e.PunchType),
			zap.String("branch_id", e.BranchID),
		)
	}))

	strategy := recognition.NewRandomizedStrategy(time.Now().UnixNano())
	engine := recognition.NewEngine(strategy)

	device := &camera.SimDevice{}
	newCamera := func() *camera.Session {
		return camera.NewSession(device, camera.DefaultFallbackConfigs)
	}

	// --- Services ---
	directoryService := directory.NewService(directoryRepo, rdb)
	notifier := punch.NewNotifier(dispatcher)
	recorder := punch.NewRecorder(db, punchRepo, outboxRepo)
	punchService := punch.NewService(
		directoryService,
		engine,
		recorder,
		notifier,
		punchRepo,
		newCamera,
	)

	// --- Handlers ---
	directoryHandler := directory.NewHandler(directoryService)
	punchHandler := punch.NewHandlerWithRedis(punchService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		directory.RegisterRoutes(api, directoryHandler)
		punch.RegisterRoutes(api, punchHandler, rdb)
	}

	return nil
}
