package env

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/badge.go/pkg/coproc"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

func simConfig(t *testing.T) *Config {
	conf := NewConfig()
	conf.Sim = true
	conf.DisplayWidth, conf.DisplayHeight = 64, 48
	conf.PNGPath = filepath.Join(t.TempDir(), "panel.png")
	conf.MQTTBrokerURL = ""
	conf.MonitorAddr = ""
	return conf
}

func TestConfigValidation(t *testing.T) {
	conf := simConfig(t)
	conf.DisplayMode = "vector"
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf = simConfig(t)
	conf.DisplayWidth = 0
	_, err = conf.NewEnv()
	require.Error(t, err)

	conf = simConfig(t)
	conf.MQTTBrokerURL = "mqtt://localhost:1883/badge"
	conf.ID = ""
	_, err = conf.NewEnv()
	require.Error(t, err)
}

func TestSimEnv(t *testing.T) {
	for _, mode := range []string{"direct", "buffered"} {
		t.Run(mode, func(t *testing.T) {
			conf := simConfig(t)
			conf.DisplayMode = mode
			e, err := conf.NewEnv()
			require.NoError(t, err)
			require.NotNil(t, e.Sim)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			require.NoError(t, e.Start(ctx))

			loop := fx.NewLoop()
			loop.Add(e)
			done := make(chan error, 1)
			go func() { done <- loop.Run(ctx) }()

			e.Sim.Press(coproc.InputStart)
			require.Eventually(t, func() bool { return e.Panel.Transfers() > 0 }, time.Second, time.Millisecond)

			cancel()
			<-done
			require.NoError(t, e.Close())
			_, err = os.Stat(conf.PNGPath)
			assert.NoError(t, err)
		})
	}
}
