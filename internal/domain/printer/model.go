package printer

import (
	"time"

	"possync/internal/domain/entity"
)

// Status — статус принтера или шаблона.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Location — привязка принтера к точке продаж; хранится JSON-колонкой.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Printer — локальная запись о принтере.
type Printer struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Model     string        `json:"model,omitempty"`
	KitchenID string        `json:"kitchen_id,omitempty"`
	Location  Location      `json:"location"`
	Status    Status        `json:"status"`
	Source    entity.Source `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TemplateKind — назначение шаблона печати.
type TemplateKind string

const (
	KindReceipt TemplateKind = "receipt"
	KindKitchen TemplateKind = "kitchen"
	KindLabel   TemplateKind = "label"
)

func (k TemplateKind) Valid() bool {
	return k == KindReceipt || k == KindKitchen || k == KindLabel
}

// Template — шаблон печати чека или кухонного тикета.
type Template struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      TemplateKind  `json:"kind"`
	Content   string        `json:"content"`
	IsDefault bool          `json:"is_default"`
	Status    Status        `json:"status"`
	Source    entity.Source `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
