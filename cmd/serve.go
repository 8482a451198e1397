package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/crm"
	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/notify"
	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/screen"
	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/server"
	"github.com/bettercallhenk/hochzeitsanzug-landing/pkg/pipedrive"
	"github.com/bettercallhenk/hochzeitsanzug-landing/pkg/recaptcha"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the landing page server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// reCAPTCHA is optional; without a secret the screen treats
		// token-carrying submissions as failed verification.
		var verifier recaptcha.Verifier
		if cfg.Recaptcha.Secret != "" {
			verifier = recaptcha.NewClient(cfg.Recaptcha.Secret)
		} else {
			zap.L().Warn("recaptcha secret not set, verification disabled")
		}

		var crmClient pipedrive.Client
		if cfg.Pipedrive.Configured() {
			crmClient = pipedrive.NewClient(cfg.Pipedrive.Domain, cfg.Pipedrive.Token)
		} else {
			zap.L().Warn("pipedrive not configured, all leads go out by email")
		}

		mailer := notify.NewMailer(notify.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Staff:    cfg.Mail.Staff,
		})
		if !mailer.Configured() {
			zap.L().Warn("mail not configured, fallback notifications disabled")
		}

		submitter := crm.NewSubmitter(crmClient, mailer, crm.Config{
			Pipeline:         cfg.Pipedrive.Pipeline,
			Stage:            cfg.Pipedrive.Stage,
			WeddingDateField: cfg.Pipedrive.WeddingDateField,
			ConsentField:     cfg.Pipedrive.ConsentField,
		})

		srv := server.New(screen.NewScreener(verifier), submitter, cfg.RateLimit)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("service", server.ServiceName))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
