package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/storage"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew_Unreachable(t *testing.T) {
	b, err := New(config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "annotator",
	}, zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, b)
}
