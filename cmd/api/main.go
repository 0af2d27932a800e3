package main

import (
	"fmt"
	"net/http"

	"github.com/fieldclock/fieldclock-backend-go/internal/config"
	appHTTP "github.com/fieldclock/fieldclock-backend-go/internal/handler/http"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/cron"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/database"
	"github.com/fieldclock/fieldclock-backend-go/internal/pkg/jwt"
	"github.com/fieldclock/fieldclock-backend-go/internal/repository/postgresql"
	timeclockService "github.com/fieldclock/fieldclock-backend-go/internal/service/timeclock"
	timesheetService "github.com/fieldclock/fieldclock-backend-go/internal/service/timesheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	txManager := postgresql.NewTxManager(db)
	siteRepo := postgresql.NewSiteRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	entryRepo := postgresql.NewEntryRepository(db)
	trailRepo := postgresql.NewTrailRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	approvalService := timesheetService.NewApprovalService(
		entryRepo,
		sessionRepo,
		cfg.Policy.MaxShiftLength,
		cfg.Policy.ApprovalWindow,
	)
	timeclockSvc := timeclockService.NewTimeclockService(
		txManager,
		sessionRepo,
		siteRepo,
		trailRepo,
		approvalService,
		cfg.Policy.MaxAccuracyMeters,
	)

	timeclockHandler := appHTTP.NewTimeclockHandler(timeclockSvc)
	timesheetHandler := appHTTP.NewTimesheetHandler(approvalService)
	auditHandler := appHTTP.NewAuditHandler(trailRepo)
	siteHandler := appHTTP.NewSiteHandler(siteRepo)

	scheduler := cron.NewScheduler()
	timesheetJobs := cron.NewTimesheetJobs(sessionRepo, approvalService)
	timesheetJobs.RegisterJobs(scheduler, cfg.Policy.ReplayInterval)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		JWTService,
		timeclockHandler,
		timesheetHandler,
		auditHandler,
		siteHandler,
		cfg.App.Env,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
