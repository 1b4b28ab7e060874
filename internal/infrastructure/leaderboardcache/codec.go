package leaderboardcache

import (
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

func encode(value any) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(value); err != nil {
		return nil, crerr.Wrap(err, "encode cache value")
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func decode(raw []byte, target any) error {
	if len(raw) == 0 {
		return crerr.New("cache value is empty")
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode cache value")
	}
	return nil
}
