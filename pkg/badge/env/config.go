package env

import (
	"flag"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/badge.go/pkg/badge"
	"github.com/robotalks/badge.go/pkg/coproc"
	"github.com/robotalks/badge.go/pkg/display"
)

// Config provides the options to setup the badge.
type Config struct {
	// I2CBus is the periph name of the bus, empty for the first one.
	I2CBus string
	// IntPin is the periph name of the interrupt line.
	IntPin string
	// Sim runs against the simulated coprocessor.
	Sim bool

	DisplayMode   string
	DisplayWidth  int
	DisplayHeight int
	// PNGPath is where the panel is dumped on exit.
	PNGPath string

	BatteryInterval time.Duration
	EventBuffer     int
	BusTimeout      time.Duration

	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ID is the device ID used in MQTT topics.
	ID string
	// MonitorAddr is the listen address of the websocket monitor.
	MonitorAddr string
}

var defaultConfig = Config{
	IntPin:          "GPIO22",
	DisplayMode:     string(display.ModeBuffered),
	DisplayWidth:    display.DefaultWidth,
	DisplayHeight:   display.DefaultHeight,
	BatteryInterval: badge.DefaultBatteryInterval,
	EventBuffer:     coproc.DefaultEventChannelSize,
	BusTimeout:      coproc.DefaultTimeout,
}

func init() {
	if val := os.Getenv("BADGE_I2C_BUS"); val != "" {
		defaultConfig.I2CBus = val
	}
	if val := os.Getenv("BADGE_INT_PIN"); val != "" {
		defaultConfig.IntPin = val
	}
	if val := os.Getenv("BADGE_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("BADGE_ID"); val != "" {
		defaultConfig.ID = val
	} else if id, err := machineid.ProtectedID("badge"); err == nil {
		defaultConfig.ID = id[:12]
	} else {
		glog.Warningf("machine id: %v", err)
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.I2CBus, "i2c", defaultConfig.I2CBus, "I2C bus of the coprocessor")
	flag.StringVar(&defaultConfig.IntPin, "int-pin", defaultConfig.IntPin, "Interrupt pin of the coprocessor")
	flag.BoolVar(&defaultConfig.Sim, "sim", defaultConfig.Sim, "Use the simulated coprocessor")
	flag.StringVar(&defaultConfig.DisplayMode, "display-mode", defaultConfig.DisplayMode, "Display mode: direct or buffered")
	flag.IntVar(&defaultConfig.DisplayWidth, "display-width", defaultConfig.DisplayWidth, "Display width in pixels")
	flag.IntVar(&defaultConfig.DisplayHeight, "display-height", defaultConfig.DisplayHeight, "Display height in pixels")
	flag.StringVar(&defaultConfig.PNGPath, "png", defaultConfig.PNGPath, "Dump the display to this PNG file on exit")
	flag.DurationVar(&defaultConfig.BatteryInterval, "battery-interval", defaultConfig.BatteryInterval, "Battery polling interval")
	flag.IntVar(&defaultConfig.EventBuffer, "event-buffer", defaultConfig.EventBuffer, "Input event channel capacity")
	flag.DurationVar(&defaultConfig.BusTimeout, "bus-timeout", defaultConfig.BusTimeout, "Timeout of one register transaction")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID")
	flag.StringVar(&defaultConfig.MonitorAddr, "monitor", defaultConfig.MonitorAddr, "Websocket monitor listen address")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
