// Package pricing holds the pure computation core of the repricer: the
// fixed-rate cost model, rule matching and the price calculator. Nothing in
// here touches the database; the workflow package feeds it snapshots.
package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var (
	vatDivisor   = decimal.NewFromFloat(1.2)  // 20% VAT, price is VAT-inclusive
	clawbackRate = decimal.NewFromFloat(0.20) // flat allowance on ex-VAT price
	hundred      = decimal.NewFromInt(100)
)

// CostBreakdown is the per-unit economics of selling at a given price.
// Clawback is a flat 20%-of-ex-VAT allowance standing in for channel
// commission, fixed fees, payment processing and advertising.
type CostBreakdown struct {
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	VatAmount     decimal.Decimal `json:"vatAmount"`
	PriceExVat    decimal.Decimal `json:"priceExVat"`
	Clawback      decimal.Decimal `json:"clawback"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	DeliveryCost  decimal.Decimal `json:"deliveryCost"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
}

// ComputeBreakdown is pure and never fails. Decimal arithmetic cannot
// produce NaN/Inf; the one degenerate case (non-positive ex-VAT price)
// yields a zero margin instead of a division blow-up.
func ComputeBreakdown(sellingPrice, costPrice, deliveryCost decimal.Decimal) CostBreakdown {
	priceExVat := sellingPrice.Div(vatDivisor)
	vatAmount := sellingPrice.Sub(priceExVat)
	clawback := priceExVat.Mul(clawbackRate)
	netProfit := priceExVat.Sub(clawback).Sub(deliveryCost).Sub(costPrice)

	marginPercent := decimal.Zero
	if priceExVat.IsPositive() {
		marginPercent = netProfit.Div(priceExVat).Mul(hundred)
	}

	return CostBreakdown{
		SellingPrice:  sellingPrice,
		VatAmount:     vatAmount,
		PriceExVat:    priceExVat,
		Clawback:      clawback,
		CostPrice:     costPrice,
		DeliveryCost:  deliveryCost,
		NetProfit:     netProfit,
		MarginPercent: marginPercent,
	}
}

func EncodeBreakdown(b CostBreakdown) []byte {
	raw, _ := json.Marshal(b)
	return raw
}

func DecodeBreakdown(raw []byte) CostBreakdown {
	if len(raw) == 0 {
		return CostBreakdown{}
	}
	var b CostBreakdown
	if err := json.Unmarshal(raw, &b); err != nil {
		return CostBreakdown{}
	}
	return b
}
