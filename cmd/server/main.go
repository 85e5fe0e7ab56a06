package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/arcade-lobby/internal/config"
	"github.com/DoyleJ11/arcade-lobby/internal/hal"
	"github.com/DoyleJ11/arcade-lobby/internal/httpapi"
	"github.com/DoyleJ11/arcade-lobby/internal/hub"
	"github.com/DoyleJ11/arcade-lobby/internal/led"
	"github.com/DoyleJ11/arcade-lobby/internal/lobby"
	"github.com/DoyleJ11/arcade-lobby/internal/logging"
	"github.com/DoyleJ11/arcade-lobby/internal/power"
	"github.com/DoyleJ11/arcade-lobby/internal/queue"
	"github.com/DoyleJ11/arcade-lobby/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Board
	sense := hal.NewSimSense(uint16(cfg.SimBatteryRaw), cfg.SimCharging)
	light := led.NewGate(hal.NewLogLED(log.Named("led")))

	// Shared state and lobby plumbing
	ps := power.NewState()
	h := hub.NewHub(ctx, log.Named("hub"))
	q := queue.New[lobby.Msg](cfg.QueueCapacity)
	events := lobby.NewHandler(q, log.Named("conn"))
	game := lobby.NewLobby(q, h, ps, lobby.Options{IncludeType: cfg.ForwardIncludeType}, log.Named("lobby"))

	deps := httpapi.Deps{
		WS: ws.Handler(h, events, ws.Options{
			Outbox:       cfg.ClientOutbox,
			WriteTimeout: cfg.WriteTimeout,
			ReadLimit:    cfg.ReadLimit,
		}, log.Named("ws")),
		Power:   ps,
		Clients: h,
		Queue:   q,
		Log:     log.Named("http"),
	}
	if cfg.DebugEndpoints {
		deps.Debug = sense
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// The radio is the listener; halting ends the process.
	board := hal.NewHostPower(log.Named("power"), func() error {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}, os.Exit)

	sampler := power.NewSampler(power.Config{
		Interval:   cfg.SampleInterval,
		Hold:       cfg.ShutdownHold,
		LowPercent: uint8(cfg.LowBatteryPercent),
		Calibration: power.Calibration{
			ADCMax:       uint16(cfg.ADCMax),
			RefMilliV:    uint32(cfg.ADCRefMilliV),
			DividerMilli: uint32(cfg.DividerMilli),
			EmptyMilliV:  uint32(cfg.BatteryEmptyMV),
			FullMilliV:   uint32(cfg.BatteryFullMV),
		},
	}, ps, sense, sense.Charge(), h, light, board, log.Named("sampler"))
	indicator := led.NewIndicator(ps, light, log.Named("indicator"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return game.Run(gctx) })
	g.Go(func() error { return sampler.Run(gctx) })
	g.Go(func() error { return indicator.Run(gctx) })
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		h.CloseAll()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	log.Info("stopped", zap.Stringer("phase", ps.Phase()))
	return err
}
