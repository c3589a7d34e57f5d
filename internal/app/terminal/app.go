package terminal

import (
	"fmt"
	"log/slog"

	"possync/internal/app/terminal/config"
	"possync/internal/domain/device"
	"possync/internal/domain/layout"
	"possync/internal/domain/outbox"
	"possync/internal/domain/printer"
	"possync/internal/domain/synccheck"
	"possync/internal/infrastructure/storage/sqlite"
)

// App собирает все сервисы терминала поверх одного локального хранилища.
type App struct {
	config  *config.Config
	log     *slog.Logger
	storage *sqlite.Storage

	Queue    outbox.Servicer
	Checks   synccheck.Servicer
	Devices  device.Servicer
	Printers printer.Servicer
	Layout   layout.Servicer
	Flush    *FlushService
	Pusher   BatchPusher
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	// Инициализируем локальное хранилище
	storage, err := sqlite.New(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	queue := outbox.NewService(
		sqlite.NewOutboxRepository(storage, log),
		log,
		&outbox.Config{
			OpsPerBatch:     cfg.OpsPerBatch,
			BatchesPerFlush: cfg.BatchesPerFlush,
		},
	)
	checks := synccheck.NewService(sqlite.NewCheckRequestRepository(storage, log), log)

	pusher := NewHTTPClient(cfg, log)

	app := &App{
		config:  cfg,
		log:     log,
		storage: storage,
		Queue:   queue,
		Checks:  checks,
		Devices: device.NewService(sqlite.NewDeviceUserRepository(storage, log), queue, log),
		Printers: printer.NewService(
			sqlite.NewPrinterRepository(storage, log),
			sqlite.NewTemplateRepository(storage, log),
			queue,
			log,
		),
		Layout: layout.NewService(sqlite.NewSectionRepository(storage, log), queue, log),
		Pusher: pusher,
	}
	app.Flush = NewFlushService(queue, checks, pusher, cfg, log)

	log.Debug("терминал инициализирован", "data_path", cfg.DataPath)

	return app, nil
}

func (a *App) Close() error {
	return a.storage.Close()
}
