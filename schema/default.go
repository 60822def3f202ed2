package schema

// Default returns the built-in catalog of normalized billing entities.
// Reports that don't bring their own schema file run against this.
func Default() *Catalog {
	objects := []*Object{
		{
			Name: "customer",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "email", Type: TypeString},
				{Name: "name", Type: TypeString},
				{Name: "currency", Type: TypeString},
				{Name: "delinquent", Type: TypeBoolean},
				{Name: "created", Type: TypeDate},
			},
			Timestamps: []string{"created"},
		},
		{
			Name: "subscription",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "customer_id", Type: TypeString},
				{Name: "status", Type: TypeEnum, Enum: []string{"trialing", "active", "past_due", "canceled"}},
				{Name: "plan", Type: TypeString},
				{Name: "quantity", Type: TypeNumber},
				{Name: "current_period_start", Type: TypeDate},
				{Name: "current_period_end", Type: TypeDate},
				{Name: "cancel_at_period_end", Type: TypeBoolean},
				{Name: "created", Type: TypeDate},
			},
			// Billing-period start is the more meaningful series anchor for
			// an active subscription than its original creation date.
			Timestamps: []string{"current_period_start", "created"},
		},
		{
			Name: "invoice",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "customer_id", Type: TypeString},
				{Name: "subscription_id", Type: TypeString},
				{Name: "status", Type: TypeEnum, Enum: []string{"draft", "open", "paid", "void", "uncollectible"}},
				{Name: "amount_due", Type: TypeNumber},
				{Name: "amount_paid", Type: TypeNumber},
				{Name: "currency", Type: TypeString},
				{Name: "due_date", Type: TypeDate},
				{Name: "created", Type: TypeDate},
			},
			Timestamps: []string{"created"},
		},
		{
			Name: "charge",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "customer_id", Type: TypeString},
				{Name: "invoice_id", Type: TypeString},
				{Name: "amount", Type: TypeNumber},
				{Name: "currency", Type: TypeString},
				{Name: "status", Type: TypeEnum, Enum: []string{"succeeded", "pending", "failed"}},
				{Name: "paid", Type: TypeBoolean},
				{Name: "refunded", Type: TypeBoolean},
				{Name: "created", Type: TypeDate},
			},
			Timestamps: []string{"created"},
		},
		{
			Name: "refund",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "charge_id", Type: TypeString},
				{Name: "amount", Type: TypeNumber},
				{Name: "status", Type: TypeEnum, Enum: []string{"succeeded", "pending", "failed"}},
				{Name: "reason", Type: TypeString},
				{Name: "created", Type: TypeDate},
			},
			Timestamps: []string{"created"},
		},
		{
			Name: "payment_method",
			Fields: []*Field{
				{Name: "id", Type: TypeString},
				{Name: "customer_id", Type: TypeString},
				{Name: "type", Type: TypeEnum, Enum: []string{"card", "bank_account"}},
				{Name: "brand", Type: TypeString},
				{Name: "last4", Type: TypeString},
				{Name: "created", Type: TypeDate},
			},
			Timestamps: []string{"created"},
		},
	}

	rels := []Relationship{
		{From: "subscription", To: "customer", Via: "customer_id"},
		{From: "invoice", To: "customer", Via: "customer_id"},
		{From: "invoice", To: "subscription", Via: "subscription_id"},
		{From: "charge", To: "customer", Via: "customer_id"},
		{From: "charge", To: "invoice", Via: "invoice_id"},
		{From: "refund", To: "charge", Via: "charge_id"},
		{From: "payment_method", To: "customer", Via: "customer_id"},
	}

	c, err := NewCatalog(objects, rels)
	if err != nil {
		// The built-in catalog is covered by tests; failing here means the
		// binary itself is broken.
		panic(err)
	}

	return c
}
