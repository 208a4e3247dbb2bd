package payment

// Customer is the verified identity triple forwarded by the gateway from
// the checkout session. Opaque to this service.
type Customer struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// ReceiptItem is one cart line as charged by the gateway.
type ReceiptItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Receipt is the gateway's signed completion payload. Its amount and id are
// trusted only after the signature verifies.
type Receipt struct {
	PaymentID string        `json:"payment_id"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Customer  Customer      `json:"customer"`
	Items     []ReceiptItem `json:"items"`
	Signature string        `json:"signature"` // hex HMAC-SHA256 over the canonical string
}
