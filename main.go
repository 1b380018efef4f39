package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicpro-backend/config"
	"clinicpro-backend/controllers"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/providers"
	"clinicpro-backend/routes"
	"clinicpro-backend/services"
	"clinicpro-backend/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, envFound := config.Load()

	zlog.Init(zlog.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
		File:  cfg.LogFile,
	})
	defer zlog.Sync()

	if !envFound {
		zlog.Info("No .env file found")
	}

	db, err := config.ConnectDB(cfg.DBURL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	registry := providers.NewRegistry(
		providers.NewWhatsAppProvider(providers.WhatsAppConfigFromEnv()),
		providers.NewSMSProvider(providers.SMSConfigFromEnv()),
		providers.NewEmailProvider(providers.SMTPConfigFromEnv()),
	)
	zlog.Info("reminder channels ready", zap.Any("configured", registry.ConfiguredChannels()))

	configs := store.NewGormConfigStore(db)
	templates := store.NewGormTemplateStore(db)

	svc, err := services.NewReminderService(services.Deps{
		Configs:      configs,
		Templates:    templates,
		Schedules:    store.NewGormScheduleStore(db),
		Logs:         store.NewGormLogStore(db),
		Appointments: store.NewGormAppointmentStore(db),
		Registry:     registry,
	},
		services.WithClinic(cfg.Clinic),
		services.WithWorkers(cfg.ReminderWorkers),
		services.WithBatchSize(cfg.ReminderBatchSize),
		services.WithMetrics(services.NewMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		zlog.Fatal("reminder service init failed", zap.Error(err))
	}

	scheduler, err := services.NewScheduler(svc, cfg.ReminderSchedule)
	if err != nil {
		zlog.Fatal("reminder scheduler init failed", zap.Error(err))
	}
	scheduler.Start()

	rc := &controllers.ReminderController{
		Service:   svc,
		Scheduler: scheduler,
		Configs:   configs,
		Templates: templates,
		Location:  cfg.Clinic.Location,
	}
	r := routes.SetupRouter(rc, routes.Options{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		MetricsHandler: promhttp.Handler(),

		TwilioAuthToken: cfg.TwilioAuthToken,
		PublicURL:       cfg.PublicURL,
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		zlog.Warn("reminder pass still running at shutdown")
	}
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http server shutdown failed", zap.Error(err))
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
