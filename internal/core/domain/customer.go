package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// InstrumentMethodHostedCard is the payment method of tokenised cards.
const InstrumentMethodHostedCard = "HOSTED_CREDIT_CARD"

// defaultBrandName is used for payment products missing from brandNames.
const defaultBrandName = "credit card"

var brandNames = map[int]string{
	1:   "Visa",
	2:   "American Express",
	3:   "MasterCard",
	56:  "UnionPay",
	117: "Maestro",
	122: "Visa Electron",
	125: "JCB",
	128: "Discover",
	130: "Carte Bancaire",
	132: "Diners Club",
}

// BrandName returns the card brand for a processor payment product id.
func BrandName(paymentProductID int) string {
	if name, ok := brandNames[paymentProductID]; ok {
		return name
	}
	return defaultBrandName
}

// Customer is a registered shopper with a wallet of stored instruments.
type Customer struct {
	CustomerNo  string              `json:"customer_no"`
	Instruments []PaymentInstrument `json:"instruments"`
}

// HasToken reports whether a stored instrument already carries token.
func (c *Customer) HasToken(token string) bool {
	for _, pi := range c.Instruments {
		if pi.Token == token {
			return true
		}
	}
	return false
}

// PaymentInstrument is a stored card in a customer's wallet.
type PaymentInstrument struct {
	ID              uuid.UUID `json:"id"`
	CustomerNo      string    `json:"customer_no"`
	Method          string    `json:"method"`
	HolderName      string    `json:"holder_name"`
	CardNumber      string    `json:"card_number"` // masked by the processor
	Brand           string    `json:"brand"`
	ExpirationMonth int       `json:"expiration_month"`
	ExpirationYear  int       `json:"expiration_year"`
	Token           string    `json:"token"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewInstrumentFromToken builds a wallet entry from a token webhook payload.
// The expiry date is MMYY.
func NewInstrumentFromToken(customerNo string, tok *TokenPayload, now time.Time) (*PaymentInstrument, error) {
	card := tok.Card.Data.CardWithoutCvv
	if len(card.ExpiryDate) != 4 {
		return nil, fmt.Errorf("invalid expiry date %q", card.ExpiryDate)
	}
	month, err := strconv.Atoi(card.ExpiryDate[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid expiry month %q: %w", card.ExpiryDate, err)
	}
	year, err := strconv.Atoi("20" + card.ExpiryDate[2:])
	if err != nil {
		return nil, fmt.Errorf("invalid expiry year %q: %w", card.ExpiryDate, err)
	}

	return &PaymentInstrument{
		ID:              uuid.New(),
		CustomerNo:      customerNo,
		Method:          InstrumentMethodHostedCard,
		HolderName:      card.CardholderName,
		CardNumber:      card.CardNumber,
		Brand:           BrandName(tok.PaymentProductID),
		ExpirationMonth: month,
		ExpirationYear:  year,
		Token:           tok.ID,
		CreatedAt:       now,
	}, nil
}
