package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationTopic   string   `yaml:"reservation_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	// Check-in window bounds around session start.
	CheckinOpensMinutesBefore int `yaml:"checkin_opens_minutes_before"`
	CheckinClosesMinutesAfter int `yaml:"checkin_closes_minutes_after"`
	// Cutoff before session start after which members cannot self-cancel a
	// confirmed seat. Owned by the scheduling collaborator, hence config.
	CancellationCutoffMinutes int  `yaml:"cancellation_cutoff_minutes"`
	WaitlistEnabled           bool `yaml:"waitlist_enabled"`
	// Bounded retries for the atomic capacity increment on write conflicts.
	ReserveRetryAttempts    int `yaml:"reserve_retry_attempts"`
	ScheduleCacheTTLSeconds int `yaml:"schedule_cache_ttl_seconds"`
	CreateLockTTLSeconds    int `yaml:"create_lock_ttl_seconds"`
}

type WorkerConfig struct {
	FinalizeSweepMinutes int `yaml:"finalize_sweep_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
