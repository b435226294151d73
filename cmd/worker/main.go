package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dojokit/booking/config"
	"github.com/dojokit/booking/internal/cache"
	"github.com/dojokit/booking/internal/kafka"
	"github.com/dojokit/booking/internal/notify"
	"github.com/dojokit/booking/internal/repository"
	"github.com/dojokit/booking/internal/service/booking"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.ReservationEvent) error {
			return sender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.FinalizeSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			runFinalizeSweep(ctx, sessionRepo, bookingService)
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

// runFinalizeSweep settles every finished session that has not been
// finalized yet: remaining confirmed reservations become no-shows with
// absent attendance records.
func runFinalizeSweep(ctx context.Context, sessions repository.SessionRepository, svc booking.BookingUseCase) {
	ids, err := sessions.ListFinishedUnfinalized(ctx)
	if err != nil {
		log.Printf("finalize sweep: list sessions: %v", err)
		return
	}
	for _, id := range ids {
		result, err := svc.FinalizeSession(ctx, id)
		if err != nil {
			log.Printf("finalize sweep: session %d: %v", id, err)
			continue
		}
		if len(result.Promoted) > 0 || len(result.AbsentMarked) > 0 {
			log.Printf("finalized session %d: promoted=%d absent=%d", id, len(result.Promoted), len(result.AbsentMarked))
		}
	}
}
