package domain

import "math"

// DefaultRoundingStep is the public price rounding step used when a product has none.
const DefaultRoundingStep = 100.0

// ComputePrices fills the derived price fields of p from its base fields and
// the USD exchange rate, mirroring the server calculation so optimistic rows
// show plausible prices. Intermediate values keep four decimals and the public
// price is rounded up to the next multiple of the rounding step.
func ComputePrices(p Product, usdRate float64) Product {
	margin := round(p.MarginPercent/100, 4)
	step := DefaultRoundingStep
	if p.RoundingStep != nil && *p.RoundingStep > 0 {
		step = *p.RoundingStep
	}

	var unrounded float64
	if p.FixedCost {
		unrounded = round(p.CostARS*(1+margin), 4)
	} else {
		p.CostUSD = round(p.NetCost*(1+p.VAT), 4)
		p.CostARS = round(p.CostUSD*usdRate, 4)
		p.PublicPriceUSD = round(p.CostUSD*(1+margin), 4)
		unrounded = round(p.PublicPriceUSD*usdRate, 4)
	}
	p.UnroundedPrice = unrounded
	p.PublicPrice = round(math.Ceil(round(unrounded/step, 9))*step, 2)
	return p
}

// ProductFromPayload builds a product row from a create or update body.
func ProductFromPayload(id int64, in ProductPayload, usdRate float64) Product {
	p := Product{
		ID:            id,
		Code:          in.Code,
		Description:   in.Description,
		Quantity:      in.Quantity,
		VAT:           in.VAT,
		RoundingStep:  in.RoundingStep,
		MarginPercent: in.MarginPercent,
		SupplierID:    in.SupplierID,
		CategoryID:    in.CategoryID,
		FixedCost:     in.FixedCost,
		RelatedIDs:    []int64{},
	}
	if in.NetCost != nil {
		p.NetCost = *in.NetCost
	}
	if in.CostARS != nil {
		p.CostARS = *in.CostARS
	}
	return ComputePrices(p, usdRate)
}

// ApplyPayload overlays an update body on an existing row. The rounding step
// keeps its previous value when the payload leaves it unset.
func ApplyPayload(old Product, in ProductPayload, usdRate float64) Product {
	p := old
	p.Code = in.Code
	p.Description = in.Description
	p.Quantity = in.Quantity
	p.VAT = in.VAT
	p.MarginPercent = in.MarginPercent
	p.SupplierID = in.SupplierID
	p.CategoryID = in.CategoryID
	p.FixedCost = in.FixedCost
	if in.RoundingStep != nil {
		p.RoundingStep = in.RoundingStep
	}
	if in.NetCost != nil {
		p.NetCost = *in.NetCost
	}
	if in.CostARS != nil {
		p.CostARS = *in.CostARS
	}
	return ComputePrices(p, usdRate)
}

func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
