// cmd/terminal/cmd/root.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"possync/internal/app/terminal"
	"possync/internal/app/terminal/config"
	"possync/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *terminal.App
	serverURL string
	dataPath  string
)

var rootCmd = &cobra.Command{
	Use:   "possync",
	Short: "PosSync - локальное хранилище точки продаж с офлайн-синхронизацией",
	Long: `PosSync — терминальное приложение точки продаж.

Все изменения пишутся в локальную базу и накапливаются в устойчивой
очереди. Доставка на сервер выполняется батчами и переживает обрывы
сети и перезапуски терминала.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	defer func() {
		if app != nil {
			_ = app.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(_ *cobra.Command, _ []string) error {
	// Загружаем конфигурацию
	cfg = config.MustLoad()

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	// Настраиваем логгер
	log = logger.New(cfg.Env)

	// Создаем приложение
	var err error
	app, err = terminal.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	return nil
}

func init() {
	cobra.OnInitialize()

	// Глобальные флаги
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера синхронизации")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "путь к локальной базе данных")
}
