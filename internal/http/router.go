package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/agendapp/office-service/internal/address"
	"github.com/agendapp/office-service/internal/appointment"
	"github.com/agendapp/office-service/internal/auth"
	"github.com/agendapp/office-service/internal/clinicalrecord"
	"github.com/agendapp/office-service/internal/config"
	"github.com/agendapp/office-service/internal/doctemplate"
	"github.com/agendapp/office-service/internal/document"
	"github.com/agendapp/office-service/internal/evolution"
	"github.com/agendapp/office-service/internal/filestore"
	"github.com/agendapp/office-service/internal/finance"
	"github.com/agendapp/office-service/internal/messaging"
	"github.com/agendapp/office-service/internal/patient"
	"github.com/agendapp/office-service/internal/profile"
	"github.com/agendapp/office-service/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Dependencies are the shared clients the router wires into every domain
// package. Publisher, Redis, Store and Metrics may be nil.
type Dependencies struct {
	Config    config.Config
	DB        *sql.DB
	Verifier  auth.TokenVerifier
	Perms     auth.Permissions
	Publisher messaging.PublisherInterface
	Redis     *redis.Client
	Store     filestore.Store
	Metrics   *telemetry.Metrics
	Logger    *zap.Logger
}

// SetupRouter initializes all routes for the application
func SetupRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	patientRepo := patient.NewRepository(deps.DB)
	patientService := patient.NewService(patientRepo, deps.Publisher, deps.Metrics, logger)
	patientHandler := patient.NewHandler(patientService)

	appointmentService := appointment.NewService(appointment.NewRepository(deps.DB), deps.Publisher, deps.Metrics, logger)
	appointmentHandler := appointment.NewHandler(appointmentService)

	recordService := clinicalrecord.NewService(clinicalrecord.NewRepository(deps.DB), logger)
	recordHandler := clinicalrecord.NewHandler(recordService)

	evolutionHandler := evolution.NewHandler(evolution.NewService(evolution.NewRepository(deps.DB), logger))

	addressHandler := address.NewHandler(address.NewClient(cfg.Address.LookupURL, cfg.Address.Timeout), logger)

	financeRepo := finance.NewRepository(deps.DB)
	financeService := finance.NewService(financeRepo, logger)
	dashboard := finance.NewDashboard(patientRepo, appointmentService, financeRepo, cfg.App.Location())
	financeHandler := finance.NewHandler(financeService, dashboard)

	var cache profile.Cache
	if deps.Redis != nil {
		cache = profile.NewRedisCache(deps.Redis, cfg.Redis.ProfileCacheTTL)
	}
	profileService := profile.NewService(profile.NewRepository(deps.DB), cache, deps.Metrics, logger)
	profileHandler := profile.NewHandler(profileService)

	templateService := doctemplate.NewService(doctemplate.NewRepository(deps.DB), deps.Store, cfg.Minio.URLExpiry, logger)
	templateHandler := doctemplate.NewHandler(templateService)

	documentService := document.NewService(document.Sources{
		Templates:    templateService,
		Patients:     patientService,
		Appointments: appointmentService,
		Records:      recordService,
		Incomes:      financeService,
		Profiles:     profileService,
	}, document.NewHistoryStore(deps.DB), cfg.App.Location(), cfg.Document.EscapeHTML, deps.Publisher, deps.Metrics, logger)
	documentHandler := document.NewHandler(documentService)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(messaging.ServiceName))
	r.Use(MetricsMiddleware(deps.Metrics))

	// protect wraps h with token verification and a permission check.
	protect := func(permission string, h http.HandlerFunc) http.Handler {
		return auth.MiddlewareWithMetrics(deps.Verifier, deps.Metrics)(
			auth.RequirePermissionWithMetrics(permission, deps.Perms, deps.Metrics)(h),
		)
	}

	// Public health endpoint
	r.HandleFunc("/health", healthHandler(deps.DB)).Methods("GET")

	// Patients
	r.Handle("/patients", protect("patient:create", patientHandler.CreatePatient)).Methods("POST")
	r.Handle("/patients", protect("patient:view", patientHandler.ListPatients)).Methods("GET")
	r.Handle("/patients/{id}", protect("patient:view", patientHandler.GetPatient)).Methods("GET")
	r.Handle("/patients/{id}", protect("patient:update", patientHandler.UpdatePatient)).Methods("PUT")
	r.Handle("/patients/{id}", protect("patient:delete", patientHandler.DeletePatient)).Methods("DELETE")
	r.Handle("/patients/{patientId}/clinical-records", protect("clinical_record:view", recordHandler.ListRecords)).Methods("GET")
	r.Handle("/patients/{patientId}/evolutions", protect("evolution:view", evolutionHandler.ListEvolutions)).Methods("GET")
	r.Handle("/addresses/{cep}", protect("address:lookup", addressHandler.LookupPostalCode)).Methods("GET")

	// Appointments
	r.Handle("/appointments", protect("appointment:create", appointmentHandler.CreateAppointments)).Methods("POST")
	r.Handle("/appointments", protect("appointment:view", appointmentHandler.ListAppointments)).Methods("GET")
	r.Handle("/appointments/{id}", protect("appointment:view", appointmentHandler.GetAppointment)).Methods("GET")
	r.Handle("/appointments/{id}", protect("appointment:update", appointmentHandler.UpdateAppointment)).Methods("PUT")
	r.Handle("/appointments/{id}/status", protect("appointment:update", appointmentHandler.UpdateStatus)).Methods("PATCH")
	r.Handle("/appointments/{id}", protect("appointment:delete", appointmentHandler.DeleteAppointment)).Methods("DELETE")

	// Clinical records
	r.Handle("/clinical-records", protect("clinical_record:create", recordHandler.CreateRecord)).Methods("POST")
	r.Handle("/clinical-records", protect("clinical_record:view", recordHandler.ListRecords)).Methods("GET")
	r.Handle("/clinical-records/{id}", protect("clinical_record:view", recordHandler.GetRecord)).Methods("GET")
	r.Handle("/clinical-records/{id}", protect("clinical_record:update", recordHandler.UpdateRecord)).Methods("PUT")
	r.Handle("/clinical-records/{id}", protect("clinical_record:delete", recordHandler.DeleteRecord)).Methods("DELETE")

	// Evolutions
	r.Handle("/evolutions", protect("evolution:create", evolutionHandler.CreateEvolution)).Methods("POST")
	r.Handle("/evolutions", protect("evolution:view", evolutionHandler.ListEvolutions)).Methods("GET")
	r.Handle("/evolutions/{id}", protect("evolution:view", evolutionHandler.GetEvolution)).Methods("GET")
	r.Handle("/evolutions/{id}", protect("evolution:update", evolutionHandler.UpdateEvolution)).Methods("PUT")
	r.Handle("/evolutions/{id}", protect("evolution:delete", evolutionHandler.DeleteEvolution)).Methods("DELETE")

	// Finance
	r.Handle("/incomes", protect("finance:create", financeHandler.CreateIncome)).Methods("POST")
	r.Handle("/incomes", protect("finance:view", financeHandler.ListIncomes)).Methods("GET")
	r.Handle("/incomes/{id}", protect("finance:view", financeHandler.GetIncome)).Methods("GET")
	r.Handle("/incomes/{id}", protect("finance:delete", financeHandler.DeleteIncome)).Methods("DELETE")
	r.Handle("/expenses/options", protect("finance:view", financeHandler.ExpenseOptions)).Methods("GET")
	r.Handle("/expenses", protect("finance:create", financeHandler.CreateExpense)).Methods("POST")
	r.Handle("/expenses", protect("finance:view", financeHandler.ListExpenses)).Methods("GET")
	r.Handle("/expenses/{id}", protect("finance:update", financeHandler.UpdateExpense)).Methods("PUT")
	r.Handle("/expenses/{id}", protect("finance:delete", financeHandler.DeleteExpense)).Methods("DELETE")
	r.Handle("/dashboard/summary", protect("dashboard:view", financeHandler.DashboardSummary)).Methods("GET")

	// Profile
	r.Handle("/profile", protect("profile:view", profileHandler.GetProfile)).Methods("GET")
	r.Handle("/profile", protect("profile:update", profileHandler.UpdateProfile)).Methods("PUT")

	// Templates
	r.Handle("/templates", protect("template:create", templateHandler.CreateTemplate)).Methods("POST")
	r.Handle("/templates/upload", protect("template:create", templateHandler.UploadTemplate)).Methods("POST")
	r.Handle("/templates", protect("template:view", templateHandler.ListTemplates)).Methods("GET")
	r.Handle("/templates/{id}", protect("template:view", templateHandler.GetTemplate)).Methods("GET")
	r.Handle("/templates/{id}/download", protect("template:view", templateHandler.DownloadTemplate)).Methods("GET")
	r.Handle("/templates/{id}", protect("template:update", templateHandler.UpdateTemplate)).Methods("PUT")
	r.Handle("/templates/{id}", protect("template:delete", templateHandler.DeleteTemplate)).Methods("DELETE")

	// Documents
	r.Handle("/documents/render", protect("document:render", documentHandler.Render)).Methods("POST")
	r.Handle("/documents/simple", protect("document:render", documentHandler.Simple)).Methods("POST")
	r.Handle("/documents/history", protect("document:view", documentHandler.History)).Methods("GET")

	return CORSMiddleware(cfg.App.AllowedOrigins)(r)
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable","service":"office-service"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"office-service"}`))
	}
}
