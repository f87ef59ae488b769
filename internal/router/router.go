package router

import (
	"time"

	"github.com/jos3lo89/ice-mankora-backend/internal/config"
	"github.com/jos3lo89/ice-mankora-backend/internal/handler"
	"github.com/jos3lo89/ice-mankora-backend/internal/middleware"
	"github.com/jos3lo89/ice-mankora-backend/internal/repository"
	"github.com/jos3lo89/ice-mankora-backend/internal/service"
	"github.com/jos3lo89/ice-mankora-backend/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(200, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	mesaRepo := repository.NewMesaRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	stockRepo := repository.NewMovimientoStockRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	comandaRepo := repository.NewComandaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	comandaSvc := service.NewComandaService(comandaRepo, dispatcher)
	pedidoSvc := service.NewPedidoService(
		pedidoRepo, mesaRepo, productoRepo, stockRepo, cajaRepo, comandaSvc, cfg.CodigoAnulacion)
	facturacionSvc := service.NewFacturacionService(
		ventaRepo, pedidoRepo, clienteRepo, cajaRepo, mesaRepo, comandaRepo, dispatcher, cfg)
	cajaSvc := service.NewCajaService(cajaRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	pedidosH := handler.NewPedidoHandler(pedidoSvc)
	ventasH := handler.NewFacturacionHandler(facturacionSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	impresionH := handler.NewImpresionHandler(comandaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.Crear)
			pedidos.GET("/pendientes", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.ListarPendientes)
			pedidos.GET("/mios", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.MisPedidos)
			pedidos.GET("/:id", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.Obtener)
			pedidos.POST("/:id/items", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.AgregarItems)
			pedidos.POST("/:id/precuenta", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.PreCuenta)
			pedidos.PATCH("/:id/estado", middleware.RequireRole("mozo", "cajero", "administrador"), pedidosH.ActualizarEstado)
			// Cancellation needs the PIN anyway; the role gate keeps waiters out
			pedidos.POST("/:id/cancelar", middleware.RequireRole("cajero", "administrador"), pedidosH.Cancelar)
		}

		ventas := v1.Group("/ventas", middleware.RequireRole("cajero", "administrador"))
		{
			ventas.POST("", ventasH.CrearVenta)
			ventas.GET("/:id/impresion", ventasH.Impresion)
			ventas.GET("/:id/pdf", ventasH.PDF)
		}

		caja := v1.Group("/caja", middleware.RequireRole("cajero", "administrador"))
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.POST("/cerrar", cajaH.Cerrar)
			caja.POST("/movimiento", cajaH.Movimiento)
			caja.GET("/activa", cajaH.Activa)
			caja.GET("/:id/detalle", cajaH.Detalle)
		}

		v1.POST("/impresion/:id/reintentar",
			middleware.RequireRole("cajero", "administrador"), impresionH.Reintentar)
	}

	// Swagger UI — disabled in production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
