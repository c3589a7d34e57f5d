package push

import (
	"possync/internal/domain/outbox"
)

// pushInput — батч операций одной коллекции.
type pushInput struct {
	Collection string `path:"collection" example:"printers" doc:"Имя коллекции"`
	Body       outbox.PushRequest
}

type pushOutput struct {
	Body outbox.PushResponse
}
