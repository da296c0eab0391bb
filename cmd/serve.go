package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/LilVoxy/linkedin_analytics/ETL/config"
	"github.com/LilVoxy/linkedin_analytics/ETL/load"
	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/routes"
	"github.com/LilVoxy/linkedin_analytics/session"
	"github.com/LilVoxy/linkedin_analytics/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервис дашборда",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig(cfgFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "адрес HTTP-сервера (по умолчанию из конфигурации)")
	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig) error {
	logger, err := utils.NewETLLogger(cfg.EnableDetailedLogging || verbose, cfg.LogDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	// Хранилище MySQL необязательно: без него отметки продвижения живут только в сессии
	var db *sql.DB
	if cfg.Database.Enabled {
		db, err = config.ConnectDatabase(cfg.Database)
		if err != nil {
			logger.Error("❌ Не удалось инициализировать базу данных: %v", err)
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("❌ Ошибка закрытия соединения с БД: %v", err)
			} else {
				logger.Info("✅ Соединение с БД закрыто")
			}
		}()
		if err := load.CreateTables(ctx, db); err != nil {
			return err
		}
		logger.Info("✅ Подключение к базе данных %s установлено", cfg.Database.DBName)
	}

	m := metrics.NewMetrics("linkedin_analytics")

	store := session.NewStore(cfg.Sessions.TTL, logger)
	store.OnCountChange(func(count int) {
		m.ActiveSessions.Set(float64(count))
	})
	if err := store.StartJanitor(cfg.Sessions.SweepInterval); err != nil {
		return err
	}
	defer store.Stop()

	loadManager := load.NewLoadManager(db, logger)
	if !loadManager.Enabled() {
		logger.Warn("Хранилище отключено: журнал загрузок и исходные файлы не сохраняются")
	}
	p := pipeline.NewPipeline(cfg, loadManager, m, logger)

	// Запускаем менеджер WebSocket
	wsManager := websocket.NewManager(p, store, m, logger)
	go wsManager.Run()
	defer wsManager.Stop()

	router := mux.NewRouter()
	routes.SetupRoutes(router, routes.Dependencies{
		Pipeline:       p,
		Store:          store,
		WS:             wsManager,
		Metrics:        m,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		StaticDir:      cfg.Server.StaticDir,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("✅ Сервер запущен на %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("❌ Ошибка запуска сервера: %v", err)
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	case <-ctx.Done():
		logger.Info("⚠️ Получен сигнал завершения, закрываем соединения...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Ошибка остановки сервера: %v", err)
	}

	logger.Info("👋 Сервер остановлен")
	return nil
}
