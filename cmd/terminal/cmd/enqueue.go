package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"possync/internal/domain/outbox"
)

var (
	enqueueTable   string
	enqueueAction  string
	enqueuePayload string
)

// Отладочная команда: кладет сырую операцию в аутбокс в обход доменных
// сервисов. Полезна для проверки протокола против живого сервера.
var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Положить сырую операцию в аутбокс (отладка)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		op, err := app.Queue.Enqueue(cmd.Context(), enqueueTable,
			outbox.Action(enqueueAction), enqueuePayload)
		if err != nil {
			return fmt.Errorf("ошибка постановки в очередь: %w", err)
		}

		fmt.Printf("✅ Операция #%d поставлена в очередь (%s %s)\n",
			op.ID, op.Action, op.TableName)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueTable, "table", "", "Имя коллекции")
	enqueueCmd.Flags().StringVar(&enqueueAction, "action", string(outbox.ActionInsert), "INSERT или UPDATE")
	enqueueCmd.Flags().StringVar(&enqueuePayload, "payload", "", "JSON-документ операции")
	_ = enqueueCmd.MarkFlagRequired("table")
	_ = enqueueCmd.MarkFlagRequired("payload")

	rootCmd.AddCommand(enqueueCmd)
}
