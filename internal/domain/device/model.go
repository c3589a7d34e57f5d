package device

import (
	"time"

	"possync/internal/domain/entity"
)

// Status — статус учетной записи на терминале.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Company — привязка к компании; хранится JSON-колонкой.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Location — привязка к точке продаж; хранится JSON-колонкой.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permissions — права пользователя на терминале; хранится JSON-колонкой.
type Permissions struct {
	ManageOrders  bool     `json:"manage_orders"`
	ManageStock   bool     `json:"manage_stock"`
	ManageDevices bool     `json:"manage_devices"`
	Roles         []string `json:"roles,omitempty"`
}

// User — учетная запись, привязанная к устройству. Version растет на каждом
// успешном изменении и никогда не убывает: под конкурентными локальными и
// серверными правками это единственный след потерянного апдейта.
type User struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	PINHash     string        `json:"-"`
	Status      Status        `json:"status"`
	Company     Company       `json:"company"`
	Location    Location      `json:"location"`
	Permissions Permissions   `json:"permissions"`
	Source      entity.Source `json:"source"`
	Version     int64         `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
