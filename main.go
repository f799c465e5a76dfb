package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	intconfig "bustix/internal/config"
	router "bustix/internal/http"
	"bustix/internal/http/handlers"
	"bustix/internal/realtime"
	"bustix/internal/repositories"
	"bustix/internal/services"
)

func main() {
	env := intconfig.LoadEnv()

	db := intconfig.ConnectDB(env.DBDSN)
	defer intconfig.CloseDB()

	if err := repositories.EnsureSchema(db); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	tripRepo := repositories.TripRepo{DB: db}
	bookingRepo := repositories.BookingRepo{DB: db}
	paymentRepo := repositories.PaymentRepo{DB: db}
	cardRepo := repositories.CardRepo{DB: db}

	governor := realtime.NewGovernor(realtime.GovernorConfig{
		MaxConnections:    env.MaxConnectionsPerUser,
		MaxRoomJoins:      env.MaxRoomJoinsPerUser,
		AttemptsPerSecond: env.AttemptsPerSecond,
		AttemptBurst:      env.AttemptBurst,
		BlockDuration:     env.BlockDuration,
	}, nil)
	hub := realtime.NewHub(realtime.HubConfig{
		IdleThreshold:   env.IdleThreshold,
		DisconnectGrace: env.DisconnectGrace,
	}, governor, nil)

	bookingSvc := services.BookingService{
		Trips:    tripRepo,
		Bookings: bookingRepo,
		Payments: paymentRepo,
		Cards:    cardRepo,
		Locks:    services.NewTripLocks(),
		Events:   hub,
	}
	refundSvc := services.RefundService{
		Trips:                 tripRepo,
		Bookings:              bookingRepo,
		Payments:              paymentRepo,
		Cards:                 cardRepo,
		Events:                hub,
		RefundWindow:          env.RefundWindow,
		CustomerRefundPercent: env.CustomerRefundPercent,
	}
	seatSvc := services.SeatService{Trips: tripRepo, Bookings: bookingRepo}
	ticketSvc := services.TicketService{Trips: tripRepo, Bookings: bookingRepo}
	reconciler := services.Reconciler{
		Trips:    tripRepo,
		Bookings: bookingRepo,
		Payments: paymentRepo,
		Events:   hub,
		Timeout:  env.PendingPaymentTimeout,
		Interval: env.SweepInterval,
	}

	r := router.NewRouter(env, router.Deps{
		System:   handlers.SystemHandlers{DB: db},
		Bookings: handlers.BookingHandlers{Bookings: bookingSvc, Refunds: refundSvc},
		Trips:    handlers.TripHandlers{Seats: seatSvc, Refunds: refundSvc},
		Tickets:  handlers.TicketHandlers{Tickets: ticketSvc},
		Realtime: handlers.RealtimeHandlers{Hub: hub},
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// No WriteTimeout: the event stream holds connections open.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx, env.SweepInterval)
	})
	g.Go(func() error {
		return reconciler.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("server error: %v", err)
	}
	log.Println("stopped cleanly")
}
