package repository

import (
	"context"
	"fmt"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// Códigos de login de un solo uso, con TTL en Redis. Una sola clave por
// email: emitir un código nuevo pisa al anterior.
type RedisOTPStore struct {
	rdb *rd.Client
}

func NewRedisOTPStore(rdb *rd.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func otpKey(email string) string {
	return fmt.Sprintf("marketplace:otp:%s", email)
}

// luaVerifyAndConsume borra la clave sólo si el código coincide, en una
// sola operación. Devuelve 1 = consumido, 0 = código incorrecto (la clave
// sigue viva hasta expirar), -1 = no hay código pendiente.
const luaVerifyAndConsume = `
local v = redis.call('GET', KEYS[1])
if v == false then
  return -1
end
if v == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`

func (s *RedisOTPStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, otpKey(email), code, ttl).Err()
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, otpKey(email)).Err()
}

// Consume intenta canjear el código. found=false si no hay código pendiente
// (nunca emitido, expirado o ya usado); ok=true si coincidió y se consumió.
func (s *RedisOTPStore) Consume(ctx context.Context, email, code string) (ok bool, found bool, err error) {
	res, err := s.rdb.Eval(ctx, luaVerifyAndConsume, []string{otpKey(email)}, code).Int()
	if err != nil {
		return false, false, err
	}
	switch res {
	case 1:
		return true, true, nil
	case 0:
		return false, true, nil
	default:
		return false, false, nil
	}
}
