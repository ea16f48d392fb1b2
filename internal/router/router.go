package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "metrology-records/docs"

	"metrology-records/internal/adapters/blob"
	"metrology-records/internal/adapters/capabilities/cached"
	mem "metrology-records/internal/adapters/storage/memory"
	pg "metrology-records/internal/adapters/storage/postgres"
	"metrology-records/internal/domain/certificates"
	"metrology-records/internal/domain/certnumber"
	"metrology-records/internal/domain/emergency"
	"metrology-records/internal/domain/equipment"
	"metrology-records/internal/domain/safetysheets"
	"metrology-records/internal/domain/users"
	"metrology-records/internal/middleware"
	"metrology-records/internal/platform/logger"
	"metrology-records/internal/ports/auth"
	"metrology-records/internal/ports/blobstore"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Logger       logger.Logger
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Nil => in-memory.
	BlobStore  blobstore.Store
	StateStore certnumber.StateStore

	// Nil => roles desde el perfil de usuarios, cacheados RoleCacheTTL.
	Roles        capabilities.ModuleResolver
	RoleCacheTTL time.Duration

	PublicRateLimitRPS   float64
	PublicRateLimitBurst int

	// Reloj de los servicios (tests). Nil => time.Now.
	Now func() time.Time
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		equipmentRepo   equipment.Repository
		certificateRepo certificates.Repository
		sheetRepo       safetysheets.Repository
		emergencyRepo   emergency.Repository
		userRepo        users.Repository
	)

	if opts.DB != nil {
		equipmentRepo = pg.NewEquipmentRepo(opts.DB)
		certificateRepo = pg.NewCertificatesRepo(opts.DB)
		sheetRepo = pg.NewSafetySheetsRepo(opts.DB)
		emergencyRepo = pg.NewEmergencyRepo(opts.DB)
		userRepo = pg.NewUsersRepo(opts.DB)
	} else {
		equipmentRepo = mem.NewEquipmentRepo()
		certificateRepo = mem.NewCertificateRepo()
		sheetRepo = mem.NewSafetySheetRepo()
		emergencyRepo = mem.NewEmergencyRepo()
		userRepo = mem.NewUserRepo()
	}

	stateStore := opts.StateStore
	if stateStore == nil {
		stateStore = mem.NewCertStateStore()
	}
	blobs := opts.BlobStore
	if blobs == nil {
		blobs = blob.NewMemoryStore("")
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo, log)

	roles := opts.Roles
	if roles == nil {
		cache := cached.New(users.NewResolver(userRepo), opts.RoleCacheTTL)
		usersSvc.OnRoleChange(cache.Invalidate)
		roles = cache
	}

	numbersSvc := certnumber.NewService(stateStore, log).WithClock(opts.Now)
	equipmentSvc := equipment.NewService(equipmentRepo)
	certificatesSvc := certificates.NewService(certificates.Deps{
		Repo:      certificateRepo,
		Numbers:   numbersSvc,
		Equipment: equipmentSvc,
		Blobs:     blobs,
		Logger:    log,
	})
	fduSvc := safetysheets.NewService(safetysheets.KindFDU, sheetRepo, blobs, log)
	fispqSvc := safetysheets.NewService(safetysheets.KindFISPQ, sheetRepo, blobs, log)
	emergencySvc := emergency.NewService(emergencyRepo, blobs, log)

	if opts.Now != nil {
		usersSvc.WithClock(opts.Now)
		equipmentSvc.WithClock(opts.Now)
		certificatesSvc.WithClock(opts.Now)
		fduSvc.WithClock(opts.Now)
		fispqSvc.WithClock(opts.Now)
		emergencySvc.WithClock(opts.Now)
	}

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, roles)
	certnumber.RegisterRoutes(r, numbersSvc, roles)
	equipment.RegisterRoutes(r, equipmentSvc, roles)
	certificates.RegisterRoutes(r, certificatesSvc, roles)
	safetysheets.RegisterRoutes(r, fduSvc, roles)
	safetysheets.RegisterRoutes(r, fispqSvc, roles)
	emergency.RegisterRoutes(r, emergencySvc, roles)

	// Consulta pública: sin auth, con rate limit por IP
	r.Route("/public", func(pr chi.Router) {
		pr.Use(middleware.RateLimit(opts.PublicRateLimitRPS, opts.PublicRateLimitBurst))

		equipment.RegisterPublicRoutes(pr, equipmentSvc)
		safetysheets.RegisterPublicRoutes(pr, fduSvc)
		safetysheets.RegisterPublicRoutes(pr, fispqSvc)
		emergency.RegisterPublicRoutes(pr, emergencySvc)
	})

	return r
}
