package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openretail/stocksync/internal/alert"
	alertdomain "github.com/openretail/stocksync/internal/alert/domain"
	alertengine "github.com/openretail/stocksync/internal/alert/engine"
	"github.com/openretail/stocksync/internal/authz"
	"github.com/openretail/stocksync/internal/config"
	"github.com/openretail/stocksync/internal/product"
	productdomain "github.com/openretail/stocksync/internal/product/domain"
	"github.com/openretail/stocksync/internal/product/liveview"
	"github.com/openretail/stocksync/internal/remote/httpstore"
	"github.com/openretail/stocksync/internal/syncer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authz.Module,
	alert.Module,
	product.Module,
	httpstore.Module,
	syncer.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	productSvc  productdomain.Service
	alertRepo   alertdomain.Repository
	alertEngine *alertengine.Engine
	authzSvc    authz.Service
	liveChanges *liveview.Hub
	syncSched   *syncer.Scheduler
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	ProductSvc  productdomain.Service
	AlertRepo   alertdomain.Repository
	AlertEngine *alertengine.Engine
	AuthzSvc    authz.Service
	LiveChanges *liveview.Hub `optional:"true"`
	SyncSched   *syncer.Scheduler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		productSvc:  p.ProductSvc,
		alertRepo:   p.AlertRepo,
		alertEngine: p.AlertEngine,
		authzSvc:    p.AuthzSvc,
		liveChanges: p.LiveChanges,
		syncSched:   p.SyncSched,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", ActorContext())

	// -------- Products --------
	v1.GET("/products", s.ListProducts)
	v1.POST("/products", ActorRequired(), s.CreateProduct)
	v1.GET("/products/live", s.StreamProductChanges)
	v1.GET("/products/:id", s.GetProductByID)
	v1.PATCH("/products/:id/quantity", s.UpdateProductQuantity)
	v1.DELETE("/products/:id", ActorRequired(), s.authorizeAction(authz.ObjectProduct, authz.ActionProductDelete), s.DeleteProduct)
	v1.PUT("/products/:id", ActorRequired(), s.UpdateProduct)
	v1.POST("/products/:id/retry-sync", ActorRequired(), s.RetryProductSync)

	// -------- Alerts --------
	v1.GET("/alerts", s.ListAlerts)
	v1.POST("/alerts/:id/read", ActorRequired(), s.authorizeAction(authz.ObjectAlert, authz.ActionAlertUpdate), s.MarkAlertRead)
	v1.POST("/alerts/dismiss/:productId", ActorRequired(), s.authorizeAction(authz.ObjectAlert, authz.ActionAlertUpdate), s.DismissCriticalAlert)

	// -------- Sync --------
	v1.POST("/sync/run", ActorRequired(), s.authorizeAction(authz.ObjectSync, authz.ActionSyncRun), s.RunSync)
}

func (s *Server) authorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authzSvc.Authorize(c.Request.Context(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
