package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

func closedClient() *Client {
	return &Client{
		rdb:    goredis.NewClient(&goredis.Options{Addr: "localhost:0"}),
		logger: logging.NewNopLogger(),
		closed: true,
	}
}

func TestClosedClientRejectsCommands(t *testing.T) {
	c := closedClient()
	ctx := context.Background()

	assert.ErrorIs(t, c.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, c.Get(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, c.Del(ctx, "k").Err(), ErrClientClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := &Client{
		rdb:    goredis.NewClient(&goredis.Options{Addr: "localhost:0"}),
		logger: logging.NewNopLogger(),
	}
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
