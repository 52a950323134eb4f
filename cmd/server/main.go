package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tazhate/workoutplanner/config"
	"github.com/tazhate/workoutplanner/internal/api"
	"github.com/tazhate/workoutplanner/internal/clients/weather"
	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/notify"
	"github.com/tazhate/workoutplanner/internal/scheduler"
	"github.com/tazhate/workoutplanner/internal/service"
	"github.com/tazhate/workoutplanner/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", err)
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))
	if cfg.UsesDefaultSecret() {
		log.Warn("SECRET_KEY is not set, using the development key")
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to init storage", err, "path", cfg.DatabasePath)
	}
	defer store.Close()

	workoutSvc := service.NewWorkoutService(store)
	authSvc := service.NewAuthService(store, cfg.SecretKey, cfg.JWTExpiration)
	resourceSvc := service.NewResourceService(cfg.ClubSchedulePath, cfg.WeeklyTargetsPath)
	weatherClient := weather.NewClient(cfg.WeatherLatitude, cfg.WeatherLongitude, cfg.Timezone)

	deps := api.Deps{
		Workouts:  workoutSvc,
		Auth:      authSvc,
		Weather:   weatherClient,
		Resources: resourceSvc,
		Ping:      store.Ping,
	}

	var exporter *service.Exporter
	if cfg.CalDAVConfigured() {
		exporter = service.NewExporter(service.NewSessionFactory(cfg.CalDAV), workoutSvc, cfg.CalendarName)
		deps.Exporter = exporter
		log.Info("caldav export enabled", "url", cfg.CalDAV.URL, "calendar", cfg.CalendarName)
	} else {
		log.Warn("caldav credentials not found, calendar export disabled")
	}

	if exporter != nil && cfg.TelegramConfigured() {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Error("telegram notifier disabled", err)
		} else {
			exporter.SetNotifier(tg)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sched *scheduler.Scheduler
	if exporter != nil && cfg.AutoExportCron != "" {
		sched = scheduler.New(exporter, cfg.AutoExportCron, cfg.AutoExportDays, cfg.Timezone)
		go func() {
			if err := sched.Start(ctx); err != nil {
				log.Error("scheduler error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping http server", err)
	}

	log.Info("workout planner stopped")
}
