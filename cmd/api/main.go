package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appcontext "github.com/SeakMengs/CertEditor/internal/app_context"
	"github.com/SeakMengs/CertEditor/internal/config"
	"github.com/SeakMengs/CertEditor/internal/controller"
	"github.com/SeakMengs/CertEditor/internal/env"
	filestorage "github.com/SeakMengs/CertEditor/internal/file_storage"
	"github.com/SeakMengs/CertEditor/internal/metrics"
	"github.com/SeakMengs/CertEditor/internal/middleware"
	ratelimiter "github.com/SeakMengs/CertEditor/internal/rate_limiter"
	"github.com/SeakMengs/CertEditor/internal/record"
	"github.com/SeakMengs/CertEditor/internal/route"
	"github.com/SeakMengs/CertEditor/internal/session"
	"github.com/SeakMengs/CertEditor/internal/util"
	"github.com/SeakMengs/CertEditor/pkg/certedit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("strNotEmpty", util.StrNotEmpty); err != nil {
			return
		}
		if err := v.RegisterValidation("cmin", util.CustomMin); err != nil {
			return
		}
		if err := v.RegisterValidation("cmax", util.CustomMax); err != nil {
			return
		}
	}

	fontMetadata, err := certedit.ReadFontMetadata(cfg.Editor.FontMetadataPath)
	if err != nil {
		logger.Warnf("Font metadata unavailable, using built-in fonts only: %v", err)
	}
	fonts := certedit.NewFontLoader(fontMetadata, logger)

	images := certedit.NewImageLoader()
	images.Register(certedit.OriginLocal, certedit.DirSource(cfg.Editor.TemplateDir))

	var blobs certedit.BlobStore
	if cfg.UseMinio() {
		s3, err := filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}

		store, err := filestorage.NewMinioBlobStore(ctx, s3, cfg.Minio.BUCKET)
		if err != nil {
			logger.Panic(err)
		}
		images.Register(certedit.OriginS3, store.TemplateSource())
		blobs = store
		logger.Info("Signature uploads stored on minio \n")
	} else {
		blobs = certedit.NewMemoryBlobStore()
	}
	images.Register(certedit.OriginBlob, certedit.BlobSource(blobs))

	assembler, err := certedit.NewAssembler(cfg.Editor.PdfEngine)
	if err != nil {
		logger.Panic(err)
	}

	var stamper *certedit.QRStamper
	if cfg.Editor.QREnabled {
		stamper = &certedit.QRStamper{URLPattern: cfg.Editor.QRURLPattern}
	}

	sessions := session.NewRegistry(session.Options{
		Blobs:      blobs,
		Rasterizer: certedit.NewCanvasRasterizer(images, fonts, logger),
		Assembler:  assembler,
		Exporter: certedit.ExporterOptions{
			SettleDelay: cfg.Editor.SettleDelay,
			Scale:       cfg.Editor.ExportScale,
			Stamper:     stamper,
			Observe:     metrics.ObserveExport,
		},
		IdleTTL:  cfg.Editor.SessionIdleTTL,
		Logger:   logger,
		OnChange: metrics.SetOpenEditors,
	})
	if cfg.Editor.SessionIdleTTL > 0 {
		go sessions.Run(ctx, cfg.Editor.SessionIdleTTL/2)
	}

	app := appcontext.Application{
		Config:   &cfg,
		Logger:   logger,
		Sessions: sessions,
		Fonts:    fonts,
		Blobs:    blobs,
		Records:  record.NewHTTPProvider(cfg.Record.API_URL, cfg.Record.Timeout, logger),
	}

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Export-Id", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(metrics.GinMiddleware())
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)
	r.GET("/metrics", metrics.Handler())

	rApi := r.Group("/api")

	route.V1_Templates(rApi, _controller.Template)
	route.V1_Editors(rApi, _controller.Editor)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + app.Config.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("Error running server: %v \n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	sessions.CloseAll(shutdownCtx)
}
