package config

import "time"

type Config struct {
	Service     *ServiceConfig
	Postgres    *PostgresConfig
	Redis       *RedisConfig
	Firebase    *FirebaseConfig
	Media       *MediaConfig
	Worker      *WorkerConfig
	Telemetry   *TelemetryConfig
	Logger      *LoggerConfig
	SecretToken string
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type FirebaseConfig struct {
	CredentialsPath string
}

type MediaConfig struct {
	Bucket    string
	Region    string
	PublicURL string
}

type WorkerConfig struct {
	MessageGroup string
}

type TelemetryConfig struct {
	Address string
}

type LoggerConfig struct {
	Level  string
	Format string
}
