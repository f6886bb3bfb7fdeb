package dbconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	c := Config{Host: "db", Port: 5433, User: "rush", Password: "p@ss word", Database: "fluency", SSLMode: "disable"}
	assert.Equal(t, "postgres://rush:p%40ss%20word@db:5433/fluency?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://rush:xxxxx@db:5433/fluency?sslmode=disable", c.Redacted())

	c.URL = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", c.DSN())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_PORT", "not-a-port")

	c := NewConfigFromEnv()
	assert.Equal(t, "fluency", c.Database)
	assert.Equal(t, 5432, c.Port)
}
