package identity

import "testing"

func TestResolve(t *testing.T) {
	id, err := Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if id.Login == "" {
		t.Fatal("expected non-empty login")
	}
	if id.DisplayName == "" {
		t.Fatal("expected non-empty display name")
	}
}

func TestHostname(t *testing.T) {
	if Hostname() == "" {
		t.Fatal("expected non-empty hostname")
	}
}
