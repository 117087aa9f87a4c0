package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/handler"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 建表
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg)
	handlers := handler.NewHandlers(services, cfg)

	// 低库存巡检：每小时扫描一次，命中告警写日志
	c := cron.New()
	c.AddFunc("@hourly", func() {
		materials, err := services.Stats.LowStockAlerts()
		if err != nil {
			zapLogger.Error("Low stock scan failed", zap.Error(err))
			return
		}
		for _, m := range materials {
			zapLogger.Warn("Low stock alert",
				zap.String("material_id", m.ID),
				zap.String("code", m.Code),
				zap.Float64("current_stock", m.CurrentStock),
				zap.Float64("safety_stock", m.SafetyStock),
			)
		}
	})
	c.Start()
	defer c.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.User.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户管理
			users := authorized.Group("/users")
			{
				users.GET("", h.User.List)
				users.POST("", middleware.RequireRole("mes_admin"), h.User.Create)
				users.GET("/:id", h.User.Get)
				users.PUT("/:id/permissions", middleware.RequireRole("mes_admin"), h.User.UpdatePermissions)
			}

			// 项目管理
			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Project.List)
				projects.POST("", middleware.RequirePermission("project:create"), h.Project.Create)
				projects.GET("/:id", h.Project.Get)
				projects.PUT("/:id/targets", middleware.RequirePermission("project:update"), h.Project.UpdateTargets)
				projects.POST("/:id/lock", middleware.RequirePermission("project:lock"), h.Project.Lock)
				projects.PUT("/:id/status", middleware.RequirePermission("project:update"), h.Project.UpdateStatus)
				projects.DELETE("/:id", middleware.RequirePermission("project:delete"), h.Project.Delete)

				// 项目下的物料项
				projects.GET("/:id/items", h.Item.ListByProject)
				projects.POST("/:id/items", middleware.RequirePermission("item:create"), h.Item.Create)
			}

			// 物料项管理
			items := authorized.Group("/items")
			{
				items.GET("/:id", h.Item.Get)
				items.PUT("/:id", middleware.RequirePermission("item:update"), h.Item.Update)
				items.DELETE("/:id", middleware.RequirePermission("item:delete"), h.Item.Delete)

				// BOM
				items.GET("/:id/bom", h.Bom.ListByItem)
				items.POST("/:id/bom", middleware.RequirePermission("bom:update"), h.Bom.Add)
				items.POST("/:id/bom/lock", middleware.RequirePermission("bom:lock"), h.Item.LockBom)

				// 工艺流程
				items.POST("/:id/workflow/validate", middleware.RequirePermission("workflow:validate"), h.Workflow.Validate)
				items.POST("/:id/workflow/unlock", middleware.RequireRole("mes_admin"), h.Workflow.Unlock)

				// 子装配件
				items.GET("/:id/subassemblies", h.SubAssembly.ListByItem)
				items.POST("/:id/subassemblies", middleware.RequirePermission("subassembly:create"), h.SubAssembly.Create)

				// 统计
				items.GET("/:id/completion", h.Stats.ItemCompletion)
				items.GET("/:id/steps/:step/stats", h.Stats.ItemStepStat)
			}

			// BOM行项
			authorized.DELETE("/bom/:bomId", middleware.RequirePermission("bom:update"), h.Bom.Delete)

			// 子装配件管理
			subs := authorized.Group("/subassemblies")
			{
				subs.GET("/:id", h.SubAssembly.Get)
				subs.PUT("/:id", middleware.RequirePermission("subassembly:update"), h.SubAssembly.Update)
				subs.POST("/:id/lock", middleware.RequirePermission("subassembly:lock"), h.SubAssembly.Lock)
				subs.POST("/:id/consume", middleware.RequirePermission("subassembly:consume"), h.SubAssembly.Consume)
				subs.GET("/:id/stats", h.SubAssembly.StepStats)
				subs.DELETE("/:id", middleware.RequirePermission("subassembly:delete"), h.SubAssembly.Delete)
			}

			// 物料库存
			materials := authorized.Group("/materials")
			{
				materials.GET("", h.Material.List)
				materials.POST("", middleware.RequirePermission("material:create"), h.Material.Create)
				materials.GET("/:id", h.Material.Get)
				materials.PUT("/:id", middleware.RequirePermission("material:update"), h.Material.Update)
				materials.POST("/:id/stock", middleware.RequirePermission("material:adjust"), h.Material.AdjustStock)
				materials.DELETE("/:id", middleware.RequirePermission("material:delete"), h.Material.Delete)
			}

			// 机台管理
			machines := authorized.Group("/machines")
			{
				machines.GET("", h.Machine.List)
				machines.POST("", middleware.RequirePermission("machine:create"), h.Machine.Create)
				machines.GET("/:id", h.Machine.Get)
				machines.PUT("/:id/maintenance", middleware.RequirePermission("machine:maintain"), h.Machine.SetMaintenance)
				machines.PUT("/:id/personnel", middleware.RequirePermission("machine:update"), h.Machine.ReplacePersonnel)
				machines.DELETE("/:id", middleware.RequirePermission("machine:delete"), h.Machine.Delete)
			}

			// 生产任务
			tasks := authorized.Group("/tasks")
			{
				tasks.GET("", h.Task.List)
				tasks.GET("/:id", h.Task.Get)
				tasks.POST("/:id/start", middleware.RequirePermission("task:operate"), h.Task.Start)
				tasks.POST("/:id/pause", middleware.RequirePermission("task:operate"), h.Task.Pause)
				tasks.POST("/:id/resume", middleware.RequirePermission("task:operate"), h.Task.Resume)
				tasks.POST("/:id/downtime/start", middleware.RequirePermission("task:operate"), h.Task.StartDowntime)
				tasks.POST("/:id/downtime/end", middleware.RequirePermission("task:operate"), h.Task.EndDowntime)

				// 报工
				tasks.POST("/:id/report", middleware.RequirePermission("production:report"), h.Production.Report)
				tasks.POST("/:id/correction", middleware.RequirePermission("production:correct"), h.Production.Correction)
				tasks.GET("/:id/logs", h.Production.TaskLogs)
			}

			// 报工流水
			authorized.GET("/production/logs", h.Production.ListLogs)

			// 统计
			stats := authorized.Group("/stats")
			{
				stats.GET("/shift-summary", h.Stats.ShiftSummary)
				stats.GET("/low-stock", h.Stats.LowStockAlerts)
			}

			// 报表导出
			export := authorized.Group("/export")
			{
				export.GET("/shift-summary", h.Export.ShiftSummary)
				export.GET("/production-logs", h.Export.ProductionLogs)
			}
		}
	}
}
