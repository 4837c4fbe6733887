package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwilachanda/aquaops-backend/api/controllers"
	"github.com/mwilachanda/aquaops-backend/api/middleware"
	"github.com/mwilachanda/aquaops-backend/internal/assignment"
	"github.com/mwilachanda/aquaops-backend/internal/technicians"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/config"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
	"github.com/mwilachanda/aquaops-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisClient *redis.Client,
	workOrdersService workorders.Service,
	techniciansService technicians.Service,
	assignmentService assignment.Service,
) http.Handler {
	var idemStore redis.IdempotencyStore
	var redisP pinger
	if redisClient != nil {
		idemStore = redisClient
		redisP = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	coordinatorRoles := []string{
		string(enums.ActorRoleAdmin),
		string(enums.ActorRoleOperator),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/work-orders", func(r chi.Router) {
			r.Get("/", controllers.ListWorkOrders(workOrdersService, logg))
			r.With(middleware.RequireRole(logg, coordinatorRoles...)).
				Post("/", controllers.CreateWorkOrder(workOrdersService, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.WorkOrderDetail(workOrdersService, logg))
				r.Post("/transition", controllers.TransitionWorkOrder(workOrdersService, logg))
				r.With(middleware.RequireRole(logg, coordinatorRoles...)).
					Post("/assign", controllers.AssignWorkOrder(assignmentService, logg))
				r.With(middleware.RequireRole(logg, coordinatorRoles...)).
					Post("/unassign", controllers.UnassignWorkOrder(assignmentService, logg))
				r.Get("/notes", controllers.ListWorkOrderNotes(workOrdersService, logg))
				r.Post("/notes", controllers.AddWorkOrderNote(workOrdersService, logg))
			})
		})

		r.Route("/technicians", func(r chi.Router) {
			r.Get("/", controllers.ListTechnicians(techniciansService, logg))
			r.With(middleware.RequireRole(logg, string(enums.ActorRoleAdmin))).
				Post("/", controllers.RegisterTechnician(techniciansService, logg))
			r.Route("/{technicianId}", func(r chi.Router) {
				r.Get("/", controllers.TechnicianDetail(techniciansService, logg))
				r.With(middleware.RequireRole(logg, string(enums.ActorRoleAdmin))).
					Post("/active", controllers.SetTechnicianActive(techniciansService, logg))
			})
		})
	})

	return r
}
