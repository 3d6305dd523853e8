package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the host process configuration, loaded from the environment.
type Config struct {
	EngineBinPath string `env:"ENGINE_BIN_PATH,required=true" validate:"required"`
	EngineHost    string `env:"ENGINE_HOST,default=localhost" validate:"required"`
	EnginePort    int    `env:"ENGINE_PORT,required=true" validate:"gt=0,lte=65535"`

	TransportBufferSize int           `env:"TRANSPORT_BUFFER_SIZE,default=256" validate:"gt=0"`
	DialRetries         int           `env:"DIAL_RETRIES,default=20" validate:"gt=0"`
	DialInterval        time.Duration `env:"DIAL_INTERVAL,default=500ms"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	HeartbeatInterval   time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`
	JournalLimit   *int   `env:"JOURNAL_LIMIT"`
	DebugPort      int    `env:"DEBUG_PORT,default=8088" validate:"gt=0,lte=65535"`

	LogLevel         string  `env:"LOG_LEVEL,default=INFO"`
	DevicePixelRatio float64 `env:"DEVICE_PIXEL_RATIO,default=1.0" validate:"gt=0"`
	ViewWidth        float64 `env:"VIEW_WIDTH,default=800" validate:"gt=0"`
	ViewHeight       float64 `env:"VIEW_HEIGHT,default=600" validate:"gt=0"`
}

// Validate cross-checks the loaded values before anything is launched.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
