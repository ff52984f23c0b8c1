package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"brandlink/config"
	"brandlink/internal/database"
	"brandlink/internal/router"
	"brandlink/pkg/cloudinary"
	"brandlink/pkg/payment"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var gateway payment.Gateway
	if cfg.Paystack.SecretKey != "" {
		gateway = payment.NewPaystackClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	} else {
		log.Printf("[Payment] PAYSTACK_SECRET_KEY not set, using stub gateway")
		gateway = &payment.StubGateway{}
	}
	if cfg.Paystack.PlatformRecipientCode == "" {
		log.Printf("[Payment] PLATFORM_RECIPIENT_CODE not set, commission transfers will fail until it is")
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	}

	engine, reconcile := router.Setup(cfg, db, gateway, cloud)

	jobs, stopJobs := context.WithCancel(context.Background())
	go reconcile.Run(jobs, cfg.Settlement.ReconcileInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	stopJobs()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
