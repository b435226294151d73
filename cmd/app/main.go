package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dojokit/booking/config"
	"github.com/dojokit/booking/internal/bootstrap"
	"github.com/dojokit/booking/internal/cache"
	"github.com/dojokit/booking/internal/kafka"
	"github.com/dojokit/booking/internal/repository"
	"github.com/dojokit/booking/internal/service/booking"
	"github.com/dojokit/booking/internal/service/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.ScheduleCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	sessionRepo := repository.NewSessionRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	scheduleService := schedule.NewScheduleService(sessionRepo, redisCache)
	bookingService := booking.NewBookingService(
		reservationRepo,
		sessionRepo,
		memberRepo,
		attendanceRepo,
		redisCache,
		producer,
		cfg.Kafka.ReservationTopic,
		booking.Settings{
			Window: booking.CheckinWindow{
				Open:  time.Duration(cfg.Booking.CheckinOpensMinutesBefore) * time.Minute,
				Close: time.Duration(cfg.Booking.CheckinClosesMinutesAfter) * time.Minute,
			},
			CancellationCutoff:   time.Duration(cfg.Booking.CancellationCutoffMinutes) * time.Minute,
			WaitlistEnabled:      cfg.Booking.WaitlistEnabled,
			ReserveRetryAttempts: cfg.Booking.ReserveRetryAttempts,
			CreateLockTTL:        time.Duration(cfg.Booking.CreateLockTTLSeconds) * time.Second,
		},
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, bookingService, scheduleService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
