// Package server exposes the REST API. Handlers stay thin: decode the
// request, call the service, translate the result. All authorization
// decisions live in the service layer.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/logger"
	"github.com/qkhacks/controller/internal/service"
	"github.com/rs/zerolog"
)

// RouterOptions carries the services and policy knobs the router needs.
type RouterOptions struct {
	Logger      zerolog.Logger
	TokenIssuer *auth.TokenIssuer

	Organizations *service.OrganizationService
	Users         *service.UserService
	Projects      *service.ProjectService
	Regions       *service.RegionService
	DataCenters   *service.DataCenterService
	MachineKeys   *service.MachineKeyService

	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter assembles the chi router with the shared middleware stack and
// every API route mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests(opts.Logger))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/signup", handleSignUp(opts.Users))
		r.Post("/users/token", handleToken(opts.Users))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(opts.TokenIssuer))

			r.Get("/organization", handleGetOrganization(opts.Organizations))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", handleGetMe(opts.Users))
				r.Put("/me/password", handleChangePassword(opts.Users))
				r.Post("/", handleAddUser(opts.Users))
				r.Get("/", handleFetchUsers(opts.Users))
				r.Get("/{userID}", handleGetUser(opts.Users))
				r.Put("/{userID}/password", handleResetPassword(opts.Users))
				r.Put("/{userID}/admin", handleChangeAdmin(opts.Users))
				r.Delete("/{userID}", handleDeleteUser(opts.Users))
			})

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", handleCreateProject(opts.Projects))
				r.Get("/", handleFetchProjects(opts.Projects))

				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", handleGetProject(opts.Projects))
					r.Put("/", handleUpdateProject(opts.Projects))
					r.Delete("/", handleDeleteProject(opts.Projects))

					r.Get("/users", handleFetchProjectUsers(opts.Projects))
					r.Post("/users/{userID}/access", handleAddAccess(opts.Projects))
					r.Delete("/users/{userID}/access", handleDeleteAccess(opts.Projects))
					r.Delete("/users/{userID}", handleDeleteAllAccess(opts.Projects))

					r.Route("/infra", func(r chi.Router) {
						r.Post("/regions", handleCreateRegion(opts.Regions))
						r.Get("/regions", handleFetchRegions(opts.Regions))
						r.Get("/regions/{regionID}", handleGetRegion(opts.Regions))
						r.Put("/regions/{regionID}", handleUpdateRegion(opts.Regions))
						r.Delete("/regions/{regionID}", handleDeleteRegion(opts.Regions))

						r.Post("/data-centers", handleCreateDataCenter(opts.DataCenters))
						r.Get("/data-centers", handleFetchDataCenters(opts.DataCenters))
						r.Get("/data-centers/{dataCenterID}", handleGetDataCenter(opts.DataCenters))
						r.Put("/data-centers/{dataCenterID}", handleUpdateDataCenter(opts.DataCenters))
						r.Delete("/data-centers/{dataCenterID}", handleDeleteDataCenter(opts.DataCenters))

						r.Post("/machine-keys", handleCreateMachineKey(opts.MachineKeys))
						r.Get("/machine-keys", handleFetchMachineKeys(opts.MachineKeys))
						r.Get("/machine-keys/{machineKeyID}", handleGetMachineKey(opts.MachineKeys))
						r.Put("/machine-keys/{machineKeyID}", handleUpdateMachineKey(opts.MachineKeys))
						r.Delete("/machine-keys/{machineKeyID}", handleDeleteMachineKey(opts.MachineKeys))
						r.Get("/machine-keys/{machineKeyID}/key", handleGetMachineKeySecret(opts.MachineKeys))
					})
				})
			})
		})
	})

	return r
}
