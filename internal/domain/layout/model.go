package layout

import (
	"time"

	"possync/internal/domain/entity"
)

// Status — статус секции зала.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Location — привязка секции к точке продаж; хранится JSON-колонкой.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Table — стол внутри секции. Список столов живет одной JSON-колонкой:
// колоночного частичного апдейта для вложенных коллекций нет, запись
// секции перечитывается и перезаписывается целиком.
type Table struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seats int    `json:"seats"`
	Shape string `json:"shape,omitempty"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// Section — секция зала со списком столов.
type Section struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Location  Location      `json:"location"`
	Tables    []Table       `json:"tables"`
	Status    Status        `json:"status"`
	Source    entity.Source `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
