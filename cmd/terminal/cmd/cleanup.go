package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Удалить доставленные операции и закрытые проверки",
	Long: `Чистит журнал аутбокса и трекер проверок за пределами
retention-окна. Недоставленные операции и открытые проверки не
удаляются никогда.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		deleted, err := app.Flush.Cleanup(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка очистки: %w", err)
		}

		fmt.Printf("✅ Удалено записей: %d\n", deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
