package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/types"
)

// Request is the payload for POST /cart/:cartId/checkout. Card fields sit at
// the top level of the body alongside the optional address objects.
type Request struct {
	PaymentDetails
	ShippingAddress types.JSONMap `json:"shipping_address,omitempty"`
	BillingAddress  types.JSONMap `json:"billing_address,omitempty"`
}

// Summary is the order summary returned on a successful checkout.
type Summary struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	ItemsCount  int             `json:"items_count"`
}
