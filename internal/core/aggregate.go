package core

import "github.com/shopspring/decimal"

// AggregateResult holds per-invocation statistics for one period.
type AggregateResult struct {
	Card          decimal.Decimal
	Cash          decimal.Decimal
	Blik          decimal.Decimal
	ServicesCount int
	Popularity    *Popularity
}

// buckets maps each accepted payment type to its revenue field.
var buckets = map[PaymentType]func(*AggregateResult) *decimal.Decimal{
	Card: func(r *AggregateResult) *decimal.Decimal { return &r.Card },
	Cash: func(r *AggregateResult) *decimal.Decimal { return &r.Cash },
	Blik: func(r *AggregateResult) *decimal.Decimal { return &r.Blik },
}

// Total is always the exact sum of the three buckets.
func (r AggregateResult) Total() decimal.Decimal {
	return r.Card.Add(r.Cash).Add(r.Blik)
}

// Revenue returns the bucket for a payment type, zero for unknown types.
func (r AggregateResult) Revenue(t PaymentType) decimal.Decimal {
	if get, ok := buckets[t]; ok {
		return *get(&r)
	}
	return decimal.Zero
}

func (r AggregateResult) IsEmpty() bool {
	return r.ServicesCount == 0
}

// Aggregate folds appointments, in the order given, into revenue buckets and
// a popularity tally. Records that are not completed inside the period are
// skipped. Unknown payment types add no revenue but are still counted.
func Aggregate(period ReportPeriod, appointments []Appointment) AggregateResult {
	res := AggregateResult{
		Card:       decimal.Zero,
		Cash:       decimal.Zero,
		Blik:       decimal.Zero,
		Popularity: NewPopularity(),
	}
	for _, a := range appointments {
		if !a.IsCompleted() || !period.Contains(a.CompletedAt) {
			continue
		}
		if get, ok := buckets[a.PaymentType]; ok {
			b := get(&res)
			*b = b.Add(a.FinalPrice)
		}
		res.ServicesCount++
		res.Popularity.Add(a.ServiceID)
	}
	return res
}
