//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "restaurant-onboarding-api"
	ConsumerName = "admin-portal"

	StatePendingRestaurant = "restaurant 101 is pending approval"
	StateMissingRestaurant = "no restaurant with id 404"
	StateWithdrawalQueued  = "restaurant 102 requested withdrawal"
)

const (
	PendingRestaurantID     int64 = 101
	WithdrawingRestaurantID int64 = 102
	MissingRestaurantID     int64 = 404

	// AdminToken is a placeholder; the provider swaps in a freshly signed token.
	AdminToken = "pact-admin-token"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the admin portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleRestaurantName is the display name used by seeded restaurants.
const ExampleRestaurantName = "Pact Pizzeria"

// ExampleOwnerEmail is the contact email used by seeded restaurants.
const ExampleOwnerEmail = "owner@pact-pizzeria.example"

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
