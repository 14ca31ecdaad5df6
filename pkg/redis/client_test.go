package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDisabledWithoutAddr(t *testing.T) {
	c, err := NewClient(context.Background(), "", "", 0, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, c.Raw())
	assert.NoError(t, c.Close())
}
