package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"possync/internal/domain/device"
)

var (
	userName   string
	companyID  string
	locationID string
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Управление учетными записями терминала",
}

var deviceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Завести учетную запись на терминале",
	Long: `Создает локальную учетную запись с PIN-кодом. Запись попадает
в очередь синхронизации и будет доставлена на сервер при следующем флаше.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if userName == "" {
			return fmt.Errorf("укажите имя через --name")
		}

		fmt.Println("=== Новая учетная запись ===")
		fmt.Print("PIN-код: ")
		pin, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения PIN-кода: %w", err)
		}
		fmt.Println()

		if len(pin) < 4 {
			return fmt.Errorf("PIN-код должен быть не короче 4 символов")
		}

		user, err := app.Devices.Create(cmd.Context(), userName, string(pin),
			device.Company{ID: companyID},
			device.Location{ID: locationID},
			device.Permissions{},
		)
		if err != nil {
			return fmt.Errorf("ошибка создания учетной записи: %w", err)
		}

		fmt.Println("✅ Учетная запись создана")
		fmt.Printf("ID: %s\n", user.ID)
		return nil
	},
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать учетные записи точки продаж",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if locationID == "" {
			return fmt.Errorf("укажите точку продаж через --location")
		}

		users, err := app.Devices.FindByLocation(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("ошибка чтения учетных записей: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("Учетных записей нет")
			return nil
		}

		for _, u := range users {
			fmt.Printf("• %s  %s  [%s]  v%d\n", u.ID, u.Name, u.Status, u.Version)
		}
		return nil
	},
}

func init() {
	deviceAddCmd.Flags().StringVar(&userName, "name", "", "имя сотрудника")
	deviceAddCmd.Flags().StringVar(&companyID, "company", "", "идентификатор компании")
	deviceAddCmd.Flags().StringVar(&locationID, "location", "", "идентификатор точки продаж")
	deviceListCmd.Flags().StringVar(&locationID, "location", "", "идентификатор точки продаж")

	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceListCmd)
	rootCmd.AddCommand(deviceCmd)
}
