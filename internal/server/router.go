package server

import (
	"github.com/abduss/fragstore/internal/auth"
	"github.com/abduss/fragstore/internal/config"
	"github.com/abduss/fragstore/internal/fragment"
	"github.com/abduss/fragstore/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	DB              *pgxpool.Pool
	ObjectStore     *minio.Client
	AuthService     *auth.Service
	FragmentService *fragment.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.Middleware(deps.AuthService))

		if deps.FragmentService != nil {
			fragment.RegisterRoutes(protected, deps.FragmentService,
				deps.Config.Store.MaxFragmentBytes, deps.Config.Server.PublicURL)
		}
	}

	return router
}
