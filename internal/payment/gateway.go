package payment

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
)

// Details carries the payment instrument for a checkout.
type Details struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
}

// Gateway is the external payment collaborator. The boolean is the
// gateway's accept/decline decision; the error is reserved for transport
// failures, which are a different class than a decline. Any
// implementation with this one synchronous method is compatible.
type Gateway interface {
	Process(ctx context.Context, details Details, amount float64) (bool, error)
}

// acceptedPrefix marks test card numbers the stub gateway accepts.
const acceptedPrefix = "4111"

// CardPrefixGateway is a deliberately naive fake: it accepts iff the card
// number starts with "4111". Kept as the default so the engine runs with
// no external dependencies.
type CardPrefixGateway struct{}

func NewCardPrefixGateway() *CardPrefixGateway {
	return &CardPrefixGateway{}
}

func (g *CardPrefixGateway) Process(_ context.Context, details Details, amount float64) (bool, error) {
	accepted := strings.HasPrefix(details.CardNumber, acceptedPrefix)
	txID := uuid.New().String()
	log.Printf("payment gateway: tx=%s amount=%.2f accepted=%v", txID, amount, accepted)
	return accepted, nil
}
