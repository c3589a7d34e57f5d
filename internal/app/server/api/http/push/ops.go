package push

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID: "push-batch",
		Method:      http.MethodPost,
		Path:        "/api/{collection}/push",
		Summary:     "Принять батч операций",
		Description: "Применяет батч операций терминала к коллекции. Повторная доставка батча безопасна: ранее принятые операции пропускаются.",
		Tags:        []string{"push"},
		// Успешный прием батча — всегда 201
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}
