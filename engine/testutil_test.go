package engine

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ledgerlens/ledgerlens/schema"
	"github.com/ledgerlens/ledgerlens/warehouse"
)

// billingSnapshot is a small, fully-joined fixture over the default catalog:
// two customers, two subscriptions, two invoices, three charges (two in
// January, one in February 2024), one refund.
func billingSnapshot() *warehouse.Snapshot {
	return warehouse.NewSnapshot(map[string]warehouse.Table{
		"customer": {
			{"id": "cus_1", "email": "ada@example.com", "name": "Ada", "currency": "usd", "delinquent": false, "created": "2024-01-10"},
			{"id": "cus_2", "email": "grace@example.com", "name": "Grace", "currency": "usd", "delinquent": true, "created": "2024-02-05"},
		},
		"subscription": {
			{"id": "sub_1", "customer_id": "cus_1", "status": "active", "plan": "pro", "quantity": 2.0, "current_period_start": "2024-03-01", "current_period_end": "2024-04-01", "cancel_at_period_end": false, "created": "2024-01-10"},
			{"id": "sub_2", "customer_id": "cus_2", "status": "canceled", "plan": "starter", "quantity": 1.0, "current_period_start": "2024-03-05", "current_period_end": "2024-04-05", "cancel_at_period_end": true, "created": "2024-02-05"},
		},
		"invoice": {
			{"id": "in_1", "customer_id": "cus_1", "subscription_id": "sub_1", "status": "paid", "amount_due": 100.0, "amount_paid": 100.0, "currency": "usd", "due_date": "2024-01-15", "created": "2024-01-05"},
			{"id": "in_2", "customer_id": "cus_2", "subscription_id": "sub_2", "status": "open", "amount_due": 250.0, "amount_paid": 0.0, "currency": "usd", "due_date": "2024-02-01", "created": "2024-01-20"},
		},
		"charge": {
			{"id": "ch_1", "customer_id": "cus_1", "invoice_id": "in_1", "amount": 100.0, "currency": "usd", "status": "succeeded", "paid": true, "refunded": true, "created": "2024-01-05"},
			{"id": "ch_2", "customer_id": "cus_2", "invoice_id": "in_2", "amount": 250.0, "currency": "usd", "status": "succeeded", "paid": true, "refunded": false, "created": "2024-01-20"},
			{"id": "ch_3", "customer_id": "cus_1", "invoice_id": nil, "amount": 40.0, "currency": "usd", "status": "failed", "paid": false, "refunded": false, "created": "2024-02-10"},
		},
		"refund": {
			{"id": "re_1", "charge_id": "ch_1", "amount": 50.0, "status": "succeeded", "reason": "requested_by_customer", "created": "2024-01-25"},
		},
	})
}

// billingSnapshotWithUndated has one dated and one undated charge.
func billingSnapshotWithUndated() *warehouse.Snapshot {
	return warehouse.NewSnapshot(map[string]warehouse.Table{
		"charge": {
			{"id": "ch_1", "amount": 100.0, "created": "2024-01-05"},
			{"id": "ch_2", "amount": 250.0, "created": nil},
		},
	})
}

// successRateSnapshot holds ten January charges, seven of them succeeded.
func successRateSnapshot() *warehouse.Snapshot {
	statuses := []string{
		"succeeded", "succeeded", "failed", "succeeded", "succeeded",
		"failed", "succeeded", "succeeded", "failed", "succeeded",
	}

	table := make(warehouse.Table, 0, len(statuses))
	for i, status := range statuses {
		table = append(table, warehouse.Record{
			"id":      time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC).Format("ch_20060102"),
			"amount":  100.0,
			"status":  status,
			"created": time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		})
	}

	return warehouse.NewSnapshot(map[string]warehouse.Table{"charge": table})
}

func testEngine() *Engine {
	return New(schema.Default())
}

// observedEngine returns an engine whose warnings are captured for
// assertions.
func observedEngine() (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)

	return New(schema.Default(), WithLogger(zap.New(core))), logs
}

func refs(pairs ...[2]string) []schema.FieldRef {
	out := make([]schema.FieldRef, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, schema.FieldRef{Object: p[0], Field: p[1]})
	}

	return out
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}

	return t
}
