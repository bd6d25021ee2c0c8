package router

import (
	"net/http"
	"time"

	"refrigas/internal/config"
	"refrigas/internal/handler"
	"refrigas/internal/infra"
	"refrigas/internal/middleware"
	"refrigas/internal/model"
	"refrigas/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer needs. The composition root in
// cmd/server builds them; tests substitute fakes.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	SMTP    *infra.CircuitBreaker
	Limiter middleware.WindowCounter

	Auth           service.AuthService
	Usuarios       service.UsuarioService
	Cartera        service.CarteraService
	Caja           service.CajaService
	Notificaciones service.NotificacionService
	Reportes       service.ReporteService
}

// New returns the Gin engine wrapped in the CORS handler.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) http.Handler {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Timeout(cfg.RequestTimeout()))
	if d.Limiter != nil {
		r.Use(middleware.RateLimiter(d.Limiter, "api", 1000, time.Minute)) // 1000 req/min per IP
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(d.Auth, d.Usuarios, cfg.Auth0LogoutReturnURL, cfg.Env == "production")
	usuariosH := handler.NewUsuariosHandler(d.Usuarios)
	clientesH := handler.NewClientesHandler(d.Cartera)
	deudasH := handler.NewDeudasHandler(d.Cartera)
	cajaH := handler.NewCajaHandler(d.Caja)
	notifH := handler.NewNotificacionesHandler(d.Notificaciones, cfg.WebhookSecretToken, cfg.NotificacionesTimeout())
	reportesH := handler.NewReportesHandler(d.Reportes)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.SMTP))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	login := []gin.HandlerFunc{authH.Login}
	if d.Limiter != nil {
		login = append([]gin.HandlerFunc{middleware.LoginRateLimiter(d.Limiter)}, login...)
	}
	r.GET("/login", login...)
	r.GET("/callback", authH.Callback)
	r.GET("/logout", authH.Logout)

	// External cron; authenticated by the shared webhook token
	r.POST("/notificaciones/webhook/verificar", notifH.Webhook)

	// Protected routes
	admin := middleware.RequireRole(model.RolAdministrador)
	v1 := r.Group("/v1", middleware.SessionAuth(d.Auth))
	{
		v1.GET("/me", authH.Me)

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", admin, clientesH.Eliminar)
		}

		deudas := v1.Group("/deudas")
		{
			deudas.POST("", deudasH.Crear)
			deudas.GET("", deudasH.Listar)
			deudas.GET("/:id", deudasH.Obtener)
			deudas.GET("/:id/saldo", deudasH.Saldo)
			deudas.POST("/:id/abonos", deudasH.RegistrarAbono)
			deudas.GET("/:id/abonos", deudasH.ListarAbonos)
			deudas.POST("/:id/marcar-pagada", deudasH.MarcarPagada)
		}
		v1.GET("/cartera/estadisticas", deudasH.Estadisticas)

		caja := v1.Group("/caja")
		{
			caja.POST("/transacciones", cajaH.RegistrarTransaccion)
			caja.GET("/transacciones", cajaH.ListarTransacciones)
			caja.GET("/resumen-diario", cajaH.ResumenDiario)
			caja.POST("/cierres/hoy", cajaH.CrearCierreHoy)
			caja.GET("/cierres", cajaH.ListarCierres)
			caja.GET("/cierres/:id", cajaH.ObtenerCierre)
			caja.POST("/cierres/:id/recalcular", cajaH.Recalcular)
			caja.POST("/cierres/:id/cerrar", cajaH.Cerrar)
			caja.GET("/cierres/:id/pdf", admin, reportesH.CierrePDF)
		}

		notif := v1.Group("/notificaciones", admin)
		{
			notif.POST("/verificar", notifH.Verificar)
			notif.POST("/deudas/:id/recordatorio", notifH.EnviarRecordatorio)
			notif.GET("", notifH.Historial)
		}

		reportes := v1.Group("/reportes", admin)
		{
			reportes.GET("/general", reportesH.General)
			reportes.GET("/clientes", reportesH.Clientes)
			reportes.GET("/abonos", reportesH.Abonos)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.GET("/:id", usuariosH.Obtener)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI; only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return middleware.CORS(cfg.Origins(), r)
}
