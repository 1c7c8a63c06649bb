package redis

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/skylog/internal/logger"
)

func TestBackoff(t *testing.T) {
	b := &backoff{next: time.Second, max: 5 * time.Second}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.wait(); got != w {
			t.Errorf("wait() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestConnectRejectsInvalidOptions(t *testing.T) {
	valid := ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        time.Millisecond,
		PingTimeout:    time.Millisecond,
	}

	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			if _, err := Connect(context.Background(), opts, logger.Nop()); err == nil {
				t.Error("Connect() should reject invalid options")
			}
		})
	}
}

func TestConnectTimesOut(t *testing.T) {
	opts := ConnectOptions{
		Addr:           "127.0.0.1:1", // nothing listens here
		DialTimeout:    50 * time.Millisecond,
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}

	start := time.Now()
	client, err := Connect(context.Background(), opts, logger.Nop())
	if err == nil {
		_ = client.Close()
		t.Fatal("Connect() to a closed port should fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, should give up near ConnectTimeout", elapsed)
	}
}
