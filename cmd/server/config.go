package main

import "time"

type Config struct {
	Host              string        `env:"LISTEN_INTERFACE,default=127.0.0.1"`
	Port              int           `env:"PORT,default=8080"`
	PublicDir         string        `env:"PUBLIC_DIR,default=./public"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	MailboxSize       int           `env:"MAILBOX_SIZE,default=256"`
	SinkBuffer        int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=5s"`
	EvictionWindow    time.Duration `env:"EVICTION_WINDOW,default=20s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	ClientTimeout     time.Duration `env:"CLIENT_TIMEOUT,default=10s"`
	MaxDecodeErrors   int           `env:"MAX_DECODE_ERRORS,default=10"`
	MonitorInterval   time.Duration `env:"MONITOR_INTERVAL,default=30s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	DebugPort         int           `env:"DEBUG_PORT"`
}
