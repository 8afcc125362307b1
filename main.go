package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pvolkov/remindly/internal/api"
	"github.com/pvolkov/remindly/internal/auth"
	"github.com/pvolkov/remindly/internal/config"
	"github.com/pvolkov/remindly/internal/database"
	"github.com/pvolkov/remindly/internal/notify"
	"github.com/pvolkov/remindly/internal/service"
	"github.com/pvolkov/remindly/internal/sweep"
)

func main() {
	logger := log.New(os.Stdout, "[remindly] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	if cfg.JWTSigningKey == "" {
		logger.Fatal("JWT_SIGNING_KEY is required")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	chat, err := newChatSender(cfg)
	if err != nil {
		logger.Fatalf("chat transport init failed: %v", err)
	}
	email := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	dispatcher := notify.NewDispatcher(email, chat, logger)
	sweeper := sweep.NewSweeper(db, dispatcher, logger)
	scheduler := sweep.NewScheduler(sweeper, cfg.SweepSpec, cfg.LocalTimezone, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("scheduler start: %v", err)
	}

	reminders := service.NewReminderService(db, logger)
	users := service.NewUserService(db, logger)
	verifier := auth.NewVerifier(cfg.JWTSigningKey)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.New(reminders, users, verifier, logger).Handler(),
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, scheduler, logger)
}

func newChatSender(cfg *config.Config) (notify.ChatSender, error) {
	if cfg.ChatProvider == config.ChatProviderWhatsApp {
		return notify.NewWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber), nil
	}
	return notify.NewTelegramSender(cfg.TelegramBotToken)
}

func waitForShutdown(server *http.Server, scheduler *sweep.Scheduler, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	scheduler.Stop()
}
