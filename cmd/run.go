package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shopstate/cartflow/actors"
	"github.com/shopstate/cartflow/cart"
	"github.com/shopstate/cartflow/config"
	"github.com/shopstate/cartflow/egress"
	"github.com/shopstate/cartflow/event"
	"github.com/shopstate/cartflow/ingress"
	"github.com/shopstate/cartflow/product"
	"github.com/shopstate/cartflow/routing"
	"github.com/shopstate/cartflow/store"
)

func init() {
	rootCmd.AddCommand(runCMD)
}

var runCMD = &cobra.Command{
	Use:   "run",
	Short: "Run the actor service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := store.OpenBolt(filepath.Join(cfg.DataDir, "cartflow.db"))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	cartStore, err := db.Bucket(event.KindCart)
	if err != nil {
		return err
	}
	productStore, err := db.Bucket(event.KindProduct)
	if err != nil {
		return err
	}

	publisher, err := egress.Connect(
		cfg.StanClusterID,
		cfg.StanClientID+"-egress",
		cfg.NatsURL,
		cfg.EgressSubject,
		"cartflow/cart-function",
		logger,
	)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	registry := actors.NewRegistry().
		Register(event.KindCart, cart.New(cartStore, cfg.AppVersion, logger)).
		Register(event.KindProduct, product.New(productStore, logger))

	system := actors.NewSystem(registry, publisher, logger,
		actors.WithPassivation(cfg.PassivateAfter),
		actors.WithPassivationFrequency(cfg.PassivationFrequency),
	)
	system.Start()
	defer system.Stop()

	consumer := &ingress.Consumer{
		ClusterID: cfg.StanClusterID,
		ClientID:  cfg.StanClientID,
		URL:       cfg.NatsURL,
		Subject:   cfg.IngressSubject,
		Durable:   cfg.DurableName,
		Queue:     cfg.QueueGroup,
		Router:    routing.Default(logger),
		System:    system,
		Logger:    logger,
	}
	if err := consumer.Run(ctx); err != nil {
		return err
	}
	logger.Info("cartflow running",
		zap.String("ingress", cfg.IngressSubject),
		zap.String("egress", cfg.EgressSubject))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
