package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushub/result-api/api/swagger"
	"github.com/campushub/result-api/internal/handler"
	"github.com/campushub/result-api/internal/middleware"
	"github.com/campushub/result-api/internal/models"
	"github.com/campushub/result-api/internal/repository"
	"github.com/campushub/result-api/internal/service"
	"github.com/campushub/result-api/pkg/cache"
	"github.com/campushub/result-api/pkg/config"
	"github.com/campushub/result-api/pkg/database"
	"github.com/campushub/result-api/pkg/logger"
	corsmiddleware "github.com/campushub/result-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/result-api/pkg/middleware/requestid"
)

// @title CampusHub Result API
// @version 0.1.0
// @description Result aggregation and publication service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Results.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Results.CacheTTL, logr, true)
		}
	}

	parameterRepo := repository.NewEvaluationParameterRepository(db)
	weightRepo := repository.NewParameterWeightRepository(db)
	markRepo := repository.NewMarkRepository(db)
	resultRepo := repository.NewResultRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)

	grading := service.DefaultGradingPolicy()
	if cfg.Results.GPADivisor > 0 {
		grading.GPADivisor = cfg.Results.GPADivisor
	}
	if cfg.Results.GPACap > 0 {
		grading.GPACap = cfg.Results.GPACap
	}

	tokenSvc := service.NewTokenService(cfg.JWT)
	directorySvc := service.NewDirectoryService(subjectRepo, studentRepo, programRepo)
	parameterSvc := service.NewEvaluationParameterService(parameterRepo, weightRepo, subjectRepo, nil, logr)
	markSvc := service.NewMarkService(markRepo, studentRepo, subjectRepo, weightRepo, nil, logr)
	scoreSvc := service.NewScoreService(markRepo, weightRepo, logr)
	resultSvc := service.NewResultService(resultRepo, studentRepo, programRepo, subjectRepo, scoreSvc, cacheSvc, metricsSvc, grading, nil, logr)

	parameterHandler := handler.NewEvaluationParameterHandler(parameterSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)
	markHandler := handler.NewMarkHandler(markSvc)
	resultHandler := handler.NewResultHandler(resultSvc, scoreSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	everyone := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher, models.RoleStudent)

	api.GET("/evaluation-parameters", staff, parameterHandler.List)
	api.POST("/evaluation-parameters", admins, parameterHandler.Create)
	api.DELETE("/evaluation-parameters/:id", admins, parameterHandler.Delete)

	api.GET("/subjects", staff, directoryHandler.ListSubjects)
	api.GET("/subjects/:id/parameters", staff, parameterHandler.AssignedParameters)
	api.PUT("/subjects/:id/parameters", admins, parameterHandler.Assign)

	api.GET("/students", staff, directoryHandler.ListStudents)
	api.GET("/students/:id", middleware.RBAC("SUPERADMIN", "ADMIN", "TEACHER", "SELF"), directoryHandler.GetStudent)
	api.GET("/programs/:id", staff, directoryHandler.GetProgram)

	api.GET("/marks/subject", staff, markHandler.ListSubjectMarks)
	api.PUT("/marks/subject", staff, markHandler.UpsertSubjectMark)
	api.GET("/marks/parameter", staff, markHandler.ListParameterMarks)
	api.PUT("/marks/parameter", staff, markHandler.UpsertParameterMark)

	api.GET("/results/score", staff, resultHandler.SubjectScore)
	api.GET("/results/summary", staff, resultHandler.Summary)
	api.POST("/results/publish", admins, resultHandler.Publish)
	api.POST("/results/publish-bulk", admins, resultHandler.PublishBulk)
	api.POST("/results/republish", admins, resultHandler.Republish)
	api.GET("/results/published", everyone, resultHandler.Published)
	api.GET("/results/published/:id/export", everyone, resultHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
