package di

import (
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/handler"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/repository"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/worker"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/database"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/kafka"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/redis"
)

// Container holds all dependencies for the class service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories
	ClassRepo       repository.ClassRepository
	SessionRepo     repository.SessionRepository
	ReservationRepo repository.ReservationRepository
	LocationRepo    repository.LocationRepository
	OutboxRepo      repository.OutboxRepository

	// Services
	ClassService       service.ClassService
	CalendarService    service.CalendarService
	ReservationService service.ReservationService

	// Handlers
	HealthHandler      *handler.HealthHandler
	ClassHandler       *handler.ClassHandler
	CalendarHandler    *handler.CalendarHandler
	ReservationHandler *handler.ReservationHandler

	// OutboxWorker is nil unless a producer is configured
	OutboxWorker *worker.OutboxWorker
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB            *database.PostgresDB
	Redis         *redis.Client
	Producer      *kafka.Producer
	ServiceConfig *service.Config
	OutboxConfig  *worker.OutboxWorkerConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	// Initialize repositories
	pool := c.DB.Pool()
	c.ClassRepo = repository.NewPostgresClassRepository(pool)
	c.SessionRepo = repository.NewPostgresSessionRepository(pool)
	c.ReservationRepo = repository.NewPostgresReservationRepository(pool)
	c.LocationRepo = repository.NewPostgresLocationRepository(pool)
	c.OutboxRepo = repository.NewPostgresOutboxRepository(pool)

	// Initialize services
	c.ClassService = service.NewClassService(c.ClassRepo, c.SessionRepo, c.LocationRepo, cfg.ServiceConfig)
	c.CalendarService = service.NewCalendarService(c.ClassRepo, c.SessionRepo, cfg.ServiceConfig)
	c.ReservationService = service.NewReservationService(c.ReservationRepo, c.CalendarService, cfg.ServiceConfig)

	// Initialize handlers
	components := map[string]handler.HealthChecker{"database": c.DB}
	if c.Redis != nil {
		components["redis"] = c.Redis
	}
	if c.Producer != nil {
		components["kafka"] = handler.CheckFunc(c.Producer.Ping)
	}
	c.HealthHandler = handler.NewHealthHandler(components)
	c.ClassHandler = handler.NewClassHandler(c.ClassService)
	c.CalendarHandler = handler.NewCalendarHandler(c.CalendarService)
	c.ReservationHandler = handler.NewReservationHandler(c.ReservationService)

	if c.Producer != nil {
		c.OutboxWorker = worker.NewOutboxWorker(c.OutboxRepo, c.Producer, cfg.OutboxConfig)
	}

	return c
}
