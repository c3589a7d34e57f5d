package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = "local"
	defaultConfigDir     = ".possync"
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	ServerAddress string `mapstructure:"server_address"`
	LogLevel      string `mapstructure:"log_level"`
	ConfigDir     string `mapstructure:"config_dir"`
	DataPath      string `mapstructure:"data_path"`
	DeviceToken   string `mapstructure:"device_token"`

	// Границы формирования батчей
	OpsPerBatch     int `mapstructure:"ops_per_batch"`
	BatchesPerFlush int `mapstructure:"batches_per_flush"`

	// Политика ретраев при отправке
	MaxRetries        int `mapstructure:"max_retries"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds"`

	// Пороги трекера проверок синхронизации
	StalenessMinutes int `mapstructure:"staleness_minutes"`
	RetentionDays    int `mapstructure:"retention_days"`

	EnableTLS  bool   `mapstructure:"enable_tls"`
	CACertPath string `mapstructure:"ca_cert_path"`
}

// MustLoad загружает конфигурацию терминала
func MustLoad() *Config {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	// Загружаем .env файл если существует
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("OPS_PER_BATCH", 10)
	viper.SetDefault("BATCHES_PER_FLUSH", 5)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("RETRY_DELAY_SECONDS", 2)
	viper.SetDefault("STALENESS_MINUTES", 30)
	viper.SetDefault("RETENTION_DAYS", 7)
	viper.SetDefault("ENABLE_TLS", false)

	// Получаем домашнюю директорию пользователя
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	// Создаем директории если их нет
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("Ошибка создания директории конфигурации: %v\n", err)
	}

	dataPath := viper.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "terminal.db")
	}

	config := &Config{
		Env:               viper.GetString("APP_ENV"),
		ServerAddress:     viper.GetString("SERVER_ADDRESS"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
		ConfigDir:         configDir,
		DataPath:          dataPath,
		DeviceToken:       viper.GetString("DEVICE_TOKEN"),
		OpsPerBatch:       viper.GetInt("OPS_PER_BATCH"),
		BatchesPerFlush:   viper.GetInt("BATCHES_PER_FLUSH"),
		MaxRetries:        viper.GetInt("MAX_RETRIES"),
		RetryDelaySeconds: viper.GetInt("RETRY_DELAY_SECONDS"),
		StalenessMinutes:  viper.GetInt("STALENESS_MINUTES"),
		RetentionDays:     viper.GetInt("RETENTION_DAYS"),
		EnableTLS:         viper.GetBool("ENABLE_TLS"),
		CACertPath:        viper.GetString("CA_CERT_PATH"),
	}

	// Валидация конфигурации
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}

	return config
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.OpsPerBatch <= 0 {
		return fmt.Errorf("ops_per_batch должен быть положительным")
	}
	if c.BatchesPerFlush <= 0 {
		return fmt.Errorf("batches_per_flush должен быть положительным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
