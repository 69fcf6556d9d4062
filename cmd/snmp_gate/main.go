package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kvolkov/snmp_gate/config"
	"github.com/kvolkov/snmp_gate/gateway"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	cfg        *config.Config
	backend    *gateway.Backend
	registry   *gateway.Registry
	dispatcher *gateway.Dispatcher
	metrics    *gateway.Metrics
	udpConn    net.PacketConn
	Logger     *zap.SugaredLogger
}

func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:     cfg,
		metrics: gateway.NewMetrics(),
		Logger:  logger,
	}
	app.metrics.MustRegister(prometheus.DefaultRegisterer)

	backend, err := gateway.NewBackend(&cfg.Modbus, logger.Named("modbus"))
	if err != nil {
		return nil, err
	}
	app.backend = backend

	registry, err := gateway.BuildRegistry(cfg, backend, time.Now(), logger, app.metrics)
	if err != nil {
		return nil, err
	}
	app.registry = registry

	app.dispatcher = gateway.NewDispatcher(registry, cfg.SNMP.Community, cfg.SNMP.UndefinedValue,
		logger.Named("snmp"), app.metrics)

	app.setRoute()
	return app, nil
}

func (app *App) Run() {
	// some devices need time to come up after a power cycle before the
	// first poll makes sense
	if app.cfg.SNMP.StartupDelay > 0 {
		app.Logger.Infof("waiting %s before serving", app.cfg.SNMP.StartupDelay)
		time.Sleep(app.cfg.SNMP.StartupDelay)
	}

	app.Logger.Infof("start http server on %s", app.cfg.HTTP.Listen)
	go func() {
		if err := app.ListenHTTP(app.cfg.HTTP.Listen); err != nil {
			app.Logger.Panic("can't start http listener", err)
		}
	}()

	app.Logger.Infof("start snmp server on %s", app.cfg.SNMP.Listen)
	go func() {
		if err := app.ListenUDP(app.cfg.SNMP.Listen); err != nil {
			app.Logger.Panic("can't start udp listener", err)
		}
	}()

	go app.watchBackend()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	app.Logger.Info("exiting...")
	if app.udpConn != nil {
		app.udpConn.Close()
	}
	if err := app.backend.Close(); err != nil {
		app.Logger.Errorf("backend close: %v", err)
	}
}

func (app *App) watchBackend() {
	for range time.Tick(5 * time.Second) {
		if app.backend.Connected() {
			app.metrics.BackendUp.Set(1)
		} else {
			app.metrics.BackendUp.Set(0)
		}
	}
}

func main() {
	fmt.Printf("version %s:%s\n", gitBranch, gitRevision)

	var confPath = flag.String("config", "snmp_gate.yml", "path to the config file")
	var debug = flag.Bool("debug", false, "debug logging")

	flag.Parse()

	cfg := zap.NewProductionConfig()
	if *debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, _ := cfg.Build()
	defer logger.Sync()

	conf, err := config.Load(*confPath)
	if err != nil {
		logger.Sugar().Fatalf("config error: %v", err)
	}

	app, err := NewApp(conf, logger.Sugar())
	if err != nil {
		logger.Sugar().Fatalf("startup error: %v", err)
	}
	app.Run()
}
