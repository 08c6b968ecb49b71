package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level"   env:"LOG_LEVEL"   env-default:"info"`
	HTTPPort   string `yaml:"http-port"   env:"HTTP_PORT"   env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	NATS       NATS   `yaml:"nats"`
	Game       Game   `yaml:"game"`
}

// Redis - optional fan-out of room events over redis pub/sub.
type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host"    env:"REDIS_HOST"    env-default:"localhost"`
	Port    string `yaml:"port"    env:"REDIS_PORT"    env-default:"6379"`
}

// NATS - room events are also published to NATS when URL is set.
type NATS struct {
	URL string `yaml:"url" env:"NATS_URL"`
}

type Game struct {
	TickInterval    time.Duration `yaml:"tick-interval"     env:"GAME_TICK_INTERVAL"     env-default:"1s"`
	TimerWorkers    int           `yaml:"timer-workers"     env:"GAME_TIMER_WORKERS"     env-default:"4"`
	HistoryPageSize int           `yaml:"history-page-size" env:"GAME_HISTORY_PAGE_SIZE" env-default:"20"`
	EventBuffer     int           `yaml:"event-buffer"      env:"GAME_EVENT_BUFFER"      env-default:"1024"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
