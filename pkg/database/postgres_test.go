package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lifeguard-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "lifeguard", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=lifeguard sslmode=disable", dsn)
}
