package kit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		calls = append(calls, "endpoint")
		return nil, nil
	})
	ep(context.Background(), nil)

	if got := strings.Join(calls, ","); got != "a,b,c,endpoint" {
		t.Errorf("calls = %s", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	ep := RequestID()(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	ep(context.Background(), nil)
	if len(seen) != 36 {
		t.Errorf("generated id = %q, want a UUID", seen)
	}

	ep(WithRequestID(context.Background(), "fixed"), nil)
	if seen != "fixed" {
		t.Errorf("id = %q, want existing id kept", seen)
	}
}

func TestLoggingPassesThrough(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	boom := errors.New("boom")

	ep := Logging(logger, "add_term")(func(context.Context, any) (any, error) {
		return "x", boom
	})
	resp, err := ep(WithTransport(context.Background(), "http"), nil)
	if resp != "x" || !errors.Is(err, boom) {
		t.Errorf("resp, err = %v, %v", resp, err)
	}
	out := buf.String()
	if !strings.Contains(out, "action=add_term") || !strings.Contains(out, "transport=http") {
		t.Errorf("log = %q", out)
	}
}

func TestGetTransportDefault(t *testing.T) {
	if got := GetTransport(context.Background()); got != "stdio" {
		t.Errorf("GetTransport = %q, want stdio", got)
	}
}
