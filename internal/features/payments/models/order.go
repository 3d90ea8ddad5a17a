package models

import "time"

// ProductType identifies which premium feature set an order pays for.
type ProductType string

const (
	ProductPredictions ProductType = "predictions"
	ProductTopGainers  ProductType = "top_gainers"
)

// ProductFromPath maps a URL path segment to a product type. Routes use a
// hyphen ("top-gainers") while the stored product type keeps the underscore.
func ProductFromPath(segment string) (ProductType, bool) {
	switch segment {
	case "predictions":
		return ProductPredictions, true
	case "top-gainers", "top_gainers":
		return ProductTopGainers, true
	default:
		return "", false
	}
}

// PathSegment is the inverse of ProductFromPath.
func (p ProductType) PathSegment() string {
	if p == ProductTopGainers {
		return "top-gainers"
	}
	return "predictions"
}

// Description is the checkout description shown on the hosted payment page.
func (p ProductType) Description() string {
	if p == ProductTopGainers {
		return "Unlock Top Gainer Stocks - StockAI"
	}
	return "Unlock AI Predictions - StockAI"
}

// OrderStatus is the lifecycle state of a payment order.
type OrderStatus string

const (
	StatusCreated  OrderStatus = "created"
	StatusPaid     OrderStatus = "paid"
	StatusReverted OrderStatus = "reverted"
)

// PaymentOrder is the locally persisted record of a payment attempt,
// distinct from the gateway's own payment record.
type PaymentOrder struct {
	OrderID        string      `json:"order_id"`
	UserID         string      `json:"user_id"`
	Amount         float64     `json:"amount"`
	Currency       string      `json:"currency"`
	Status         OrderStatus `json:"status"`
	PaymentGateway string      `json:"payment_gateway"`
	ProductType    ProductType `json:"product_type"`
	PaymentID      string      `json:"payment_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
