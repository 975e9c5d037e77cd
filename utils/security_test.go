// microboard/utils/security_test.go
package utils

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateTripcode(t *testing.T) {
	TripSalt = "test-salt"

	name, trip := GenerateTripcode("Anonymous")
	if name != "Anonymous" || trip != "" {
		t.Errorf("Expected plain name and no tripcode, got %q / %q", name, trip)
	}

	name, trip = GenerateTripcode("Tester#secret")
	if name != "Tester" {
		t.Errorf("Expected display name 'Tester', got %q", name)
	}
	if !strings.HasPrefix(trip, "!") || len(trip) != 11 {
		t.Errorf("Expected '!' plus 10 characters, got %q", trip)
	}

	// Same secret derives the same identity regardless of display name.
	_, trip2 := GenerateTripcode("Other#secret")
	if trip2 != trip {
		t.Errorf("Expected identical tripcodes for same secret, got %q and %q", trip, trip2)
	}

	// A different secret derives a different identity.
	_, trip3 := GenerateTripcode("Tester#other")
	if trip3 == trip {
		t.Error("Expected distinct tripcodes for distinct secrets")
	}

	// Empty secret after the separator means no tripcode.
	name, trip = GenerateTripcode("Tester#")
	if name != "Tester" || trip != "" {
		t.Errorf("Expected no tripcode for empty secret, got %q / %q", name, trip)
	}
}

func TestGenerateTripcodeSalted(t *testing.T) {
	TripSalt = "salt-one"
	_, tripA := GenerateTripcode("x#secret")
	TripSalt = "salt-two"
	_, tripB := GenerateTripcode("x#secret")
	if tripA == tripB {
		t.Error("Expected salt to change the derived tripcode")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" {
		t.Error("Hash must not equal the plaintext")
	}
	if !VerifyPassword("hunter2", hash) {
		t.Error("Expected correct password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("Expected wrong password to fail")
	}
	if VerifyPassword("hunter2", "not-a-hash") {
		t.Error("Expected malformed hash to fail verification")
	}
}

func TestGetIPAddress(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	if ip := GetIPAddress(r); ip != "192.0.2.7" {
		t.Errorf("Expected remote address host, got %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if ip := GetIPAddress(r); ip != "203.0.113.9" {
		t.Errorf("Expected first forwarded address, got %q", ip)
	}

	r.Header.Set("CF-Connecting-IP", "198.51.100.4")
	if ip := GetIPAddress(r); ip != "198.51.100.4" {
		t.Errorf("Expected CF header to win, got %q", ip)
	}
}
