package database

import (
	"testing"

	"loragw/config"
)

func TestDSN(t *testing.T) {
	got := DSN(config.Config{DBHost: "db", DBUser: "gw", DBPassword: "secret", DBName: "lora", DBPort: "5432"})
	want := "host=db user=gw password=secret dbname=lora port=5432 sslmode=disable"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
