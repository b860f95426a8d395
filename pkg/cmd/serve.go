package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/assessment"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/config"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/logging"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/metrics"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/server"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/store"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/vision"
)

func init() {
	ServeCmd.Flags().String("address", "", "listen address, overrides server.address")
	ServeCmd.Flags().String("storage", "", "SQLite path, overrides storage.path")
	_ = viper.BindPFlag("server.address", ServeCmd.Flags().Lookup("address"))
	_ = viper.BindPFlag("storage.path", ServeCmd.Flags().Lookup("storage"))
}

var (
	ServeCmd = &cobra.Command{
		Use:   ServeCmdName,
		Short: ServeCmdShort,
		Long:  ServeCmdLong,
		RunE:  serveCmdFunc(),
	}
)

func serveCmdFunc() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("Started serve cmd", zap.String("address", cfg.Server.Address), zap.String("storage", cfg.Storage.Path))

		st, err := store.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		serve, err := server.NewHTTPServer(cfg.Server.Address, buildDeps(cfg, st, log))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := serve.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Error("Server stopped", zap.Error(err))
				return err
			}
		case <-ctx.Done():
			log.Info("Shutdown the server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := serve.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func buildDeps(cfg *config.Config, st store.Store, log *zap.Logger) server.Deps {
	m := metrics.New()
	ps := pricing.NewStore(cfg.Pricing)
	engine := valuation.NewEngine(ps)

	deps := server.Deps{
		Engine:         engine,
		Pricing:        ps,
		Branding:       pricing.NewBrandingStore(pricing.DefaultBranding()),
		Assessor:       assessment.NewService(engine, cfg.Policy, log.Named("assessment"), m),
		Store:          st,
		Metrics:        m,
		Log:            log.Named("http"),
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}
	if cfg.Vision.APIKey != "" {
		deps.Analyzer = vision.NewAnthropicAnalyzer(vision.NewMessager(cfg.Vision.APIKey), vision.Config{
			Model:     cfg.Vision.Model,
			MaxTokens: cfg.Vision.MaxTokens,
			Timeout:   cfg.Vision.Timeout,
		}, log.Named("vision"))
	} else {
		log.Warn("vision.api_key is not set, image analysis is disabled")
	}
	return deps
}
