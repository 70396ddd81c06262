package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// ws_smoke subscribes to the snapshot feed and prints what arrives.
func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "snapshot feed address")
	token := flag.String("token", "", "viewer token, when the API requires one")
	count := flag.Int("count", 1, "number of messages to print before exiting")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := *addr
	if *token != "" {
		target += "?token=" + url.QueryEscape(*token)
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	conn.SetReadLimit(8 << 20)

	var outbound struct {
		Type  string            `json:"type"`
		Data  json.RawMessage   `json:"data"`
		Error map[string]string `json:"error,omitempty"`
	}

	for i := 0; i < *count; i++ {
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			log.Fatalf("read: %v", err)
		}
		if outbound.Error != nil {
			log.Fatalf("server error: %v", outbound.Error)
		}
		fmt.Printf("%s: %s\n", outbound.Type, outbound.Data)
	}
}
