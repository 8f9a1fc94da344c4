package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

type stubRedis struct {
	list    []string
	pushErr error
}

func (s *stubRedis) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	if s.pushErr != nil {
		return redis.NewIntResult(0, s.pushErr)
	}
	for _, v := range values {
		var item string
		switch val := v.(type) {
		case []byte:
			item = string(val)
		case string:
			item = val
		}
		s.list = append([]string{item}, s.list...)
	}
	return redis.NewIntResult(int64(len(s.list)), nil)
}

func (s *stubRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	if int(stop+1) < len(s.list) {
		s.list = s.list[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	end := int(stop + 1)
	if end > len(s.list) {
		end = len(s.list)
	}
	return redis.NewStringSliceResult(s.list[start:end], nil)
}

func TestRedisRecorderTrimsAndOrders(t *testing.T) {
	stub := &stubRedis{}
	rec := NewRedisRecorder(stub, "")
	ctx := context.Background()

	for i := 0; i < MaxEntries+5; i++ {
		entry := Entry{Path: fmt.Sprintf("/tmp/%d.png", i), Host: "imgur", Link: fmt.Sprintf("https://i.imgur.com/%d.png", i)}
		if err := rec.Record(ctx, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if len(stub.list) != MaxEntries {
		t.Fatalf("expected %d entries kept, got %d", MaxEntries, len(stub.list))
	}

	entries, err := rec.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Path != fmt.Sprintf("/tmp/%d.png", MaxEntries+4) {
		t.Fatalf("newest entry must come first, got %s", entries[0].Path)
	}
	if !entries[0].OK() || entries[0].At.IsZero() {
		t.Fatalf("expected normalized successful entry: %+v", entries[0])
	}
}

func TestRedisRecorderPropagatesErrors(t *testing.T) {
	boom := errors.New("conexão recusada")
	rec := NewRedisRecorder(&stubRedis{pushErr: boom}, DefaultKey)
	if err := rec.Record(context.Background(), Entry{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped redis error, got %v", err)
	}
}

func TestMemoryRecorder(t *testing.T) {
	rec := NewMemoryRecorder()
	ctx := context.Background()
	_ = rec.Record(ctx, Entry{Path: "a", Error: "upload: link ausente na resposta"})
	_ = rec.Record(ctx, Entry{Path: "b", Link: "https://x"})

	entries, _ := rec.List(ctx, 0)
	if len(entries) != 2 || entries[0].Path != "b" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[1].OK() {
		t.Fatalf("failed entry must not be OK")
	}
}
