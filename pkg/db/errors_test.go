package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name: "postgres duplicate key",
			err:  errors.New(`duplicate key value violates unique constraint "idx_payment_transactions_gateway_txn"`),
			want: true,
		},
		{
			name: "sqlite unique constraint",
			err:  errors.New("UNIQUE constraint failed: payment_transactions.gateway"),
			want: true,
		},
		{
			name:       "matches named constraint",
			err:        errors.New(`duplicate key value violates unique constraint "idx_payment_transactions_gateway_txn"`),
			constraint: "idx_payment_transactions_gateway_txn",
			want:       true,
		},
		{
			name:       "different constraint does not match",
			err:        errors.New(`duplicate key value violates unique constraint "orders_pkey"`),
			constraint: "idx_payment_transactions_gateway_txn",
			want:       false,
		},
		{
			name: "unrelated error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v, %q) = %v, want %v", tc.err, tc.constraint, got, tc.want)
			}
		})
	}
}
