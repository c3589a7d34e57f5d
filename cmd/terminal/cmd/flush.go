package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"possync/internal/app/terminal"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Отправить накопленные операции на сервер",
	Long: `Выталкивает очередь локальных мутаций на сервер батчами.

Не доставленные батчи остаются в очереди и будут отправлены при
следующем запуске с теми же ключами идемпотентности.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println("=== Отправка очереди ===")

		start := time.Now()
		result, err := app.Flush.Flush(cmd.Context())
		if err != nil {
			if errors.Is(err, terminal.ErrFlushInProgress) {
				fmt.Println("⚠️  Отправка уже выполняется")
				return nil
			}
			return fmt.Errorf("ошибка отправки: %w", err)
		}

		fmt.Println()
		fmt.Println("✅ Отправка завершена!")
		fmt.Printf("Время выполнения: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Сформировано батчей: %d\n", result.Batches)
		fmt.Printf("Принято сервером: %d батчей (%d операций)\n", result.Accepted, result.Operations)

		if result.Rejected > 0 {
			fmt.Printf("⚠️  Отклонено сервером: %d батчей\n", result.Rejected)
		}
		if result.Failed > 0 {
			fmt.Printf("⚠️  Не доставлено: %d батчей, повтор при следующем запуске\n", result.Failed)
		}
		if result.Pending > 0 {
			fmt.Printf("В очереди осталось операций: %d\n", result.Pending)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}
