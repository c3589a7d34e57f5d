package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать состояние очереди и проверок синхронизации",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pending, err := app.Queue.PendingCount(ctx)
		if err != nil {
			return fmt.Errorf("ошибка чтения очереди: %w", err)
		}

		fmt.Println("=== Состояние синхронизации ===")
		fmt.Printf("Операций в очереди: %d\n", pending)

		stale, err := app.Flush.CheckStale(ctx)
		if err != nil {
			return fmt.Errorf("ошибка чтения проверок: %w", err)
		}

		if len(stale) == 0 {
			fmt.Println("Зависших проверок нет")
			return nil
		}

		fmt.Printf("⚠️  Зависших проверок: %d\n", len(stale))
		for _, req := range stale {
			fmt.Printf("  • %s: без подтверждения с %s\n",
				req.EntityName, req.LastSync.Local().Format("02.01.2006 15:04"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
