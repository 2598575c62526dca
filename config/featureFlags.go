package config

import (
	"os"
	"strings"
)

// PermissiveStatusTransitions disables transition-table enforcement so that
// privileged backfill tooling can move an order between arbitrary statuses.
// Stock side effects still apply based on the stock-required crossing.
//
// Set via env:
// - PERMISSIVE_STATUS_TRANSITIONS=true
func PermissiveStatusTransitions() bool {
	return boolFromEnv("PERMISSIVE_STATUS_TRANSITIONS")
}

// RejectOverpayment makes RecordPayment fail when the amount exceeds the
// order's current balance due. By default overpayment is recorded as-is and
// the balance goes negative.
//
// Set via env:
// - REJECT_OVERPAYMENT=true
func RejectOverpayment() bool {
	return boolFromEnv("REJECT_OVERPAYMENT")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
