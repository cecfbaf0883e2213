package service

import (
	"testing"

	"go.uber.org/zap"
)

func testClient() *WSClient {
	return &WSClient{Log: zap.NewNop(), Pair: "SOL/USD", RESTPair: "SOLUSD"}
}

func TestParseTick(t *testing.T) {
	c := testClient()
	msg := []byte(`[340,{"a":["142.40000","1","1.000"],"b":["142.39000","5","5.000"],"c":["142.39500","0.25"],"v":["1000","2000"]},"ticker","SOL/USD"]`)

	tick, ok := c.parseTick(msg)
	if !ok {
		t.Fatal("want tick")
	}
	if tick.Pair != "SOLUSD" {
		t.Fatalf("pair = %q, want normalized SOLUSD", tick.Pair)
	}
	if tick.Price != 142.395 {
		t.Fatalf("price = %v, want 142.395", tick.Price)
	}
	if tick.TsUnixMs == 0 {
		t.Fatal("timestamp must be set")
	}
}

func TestParseTickIgnoresEventMessages(t *testing.T) {
	c := testClient()
	cases := []struct {
		name string
		msg  string
	}{
		{"heartbeat", `{"event":"heartbeat"}`},
		{"subscription status", `{"event":"subscriptionStatus","status":"subscribed","pair":"SOL/USD"}`},
		{"short frame", `[340,{"c":["1.0","0.1"]}]`},
		{"no last trade", `[340,{"a":["142.40","1","1.0"]},"ticker","SOL/USD"]`},
		{"zero price", `[340,{"c":["0.00000","0.25"]},"ticker","SOL/USD"]`},
		{"garbage", `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := c.parseTick([]byte(tc.msg)); ok {
				t.Fatal("message must be ignored")
			}
		})
	}
}
