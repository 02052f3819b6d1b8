package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/store/postgres"
)

func TestNew_InvalidDSN(t *testing.T) {
	t.Parallel()

	s, err := postgres.New(context.Background(), "postgres://%zz", 4)

	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "postgres.New: parse config")
}
