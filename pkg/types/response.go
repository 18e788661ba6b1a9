package types

// SuccessEnvelope is the standard success body: {success, message?, data?}.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OrdersEnvelope carries the order-history list under a top-level "orders" key.
type OrdersEnvelope struct {
	Success    bool `json:"success"`
	Orders     any  `json:"orders"`
	Pagination any  `json:"pagination,omitempty"`
}

// OrderEnvelope carries a single order under a top-level "order" key.
type OrderEnvelope struct {
	Success bool `json:"success"`
	Order   any  `json:"order"`
}

// ErrorEnvelope is the standard failure body: {success:false, message, error?}.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  any    `json:"error,omitempty"`
}
