package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toyvault/go-guest-orders/internal/redisx"
)

// Counter bump and TTL arm in one atomic step; a crash between a bare INCR
// and its EXPIRE would leave a counter with no TTL and lock the key out
// for good.
var allowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
if count > tonumber(ARGV[2]) then
  return 0
end
return 1
`)

// Redis is a fixed-window counter shared across instances. Fails open when
// Redis is unreachable so an outage does not take checkout down with it.
type Redis struct {
	Client *redis.Client
	Scope  string
	Limit  int
	Window time.Duration
}

func NewRedis(client *redis.Client, scope string, limit int, window time.Duration) *Redis {
	return &Redis{Client: client, Scope: scope, Limit: limit, Window: window}
}

func (l *Redis) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	k := fmt.Sprintf(redisx.KeyRateLimit, l.Scope, key)
	res, err := allowScript.Run(ctx, l.Client, []string{k},
		int(l.Window.Seconds()), l.Limit).Int()
	if err != nil {
		return true
	}
	return res == 1
}
