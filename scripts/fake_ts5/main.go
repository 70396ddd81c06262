package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/vovakirdan/ts5-mirror/internal/transport/ws/wstest"
)

const defaultAck = `{"type":"auth","payload":{"apiKey":"local-dev","connections":[
	{"id":1,"clientId":1,"status":4,"properties":{"name":"Local Server"},
	 "channelInfos":{"rootChannels":[{"id":1,"properties":{"name":"Lobby"}},{"id":2,"properties":{"name":"Games"}}],
	                 "subChannels":{"2":[{"id":3,"properties":{"name":"Squad"}}]}},
	 "clientInfos":[{"id":1,"channelId":1,"properties":{"nickname":"me"}},{"id":2,"channelId":3,"properties":{"nickname":"friend"}}]}
]}}`

// fake_ts5 stands in for the TeamSpeak client during local runs. It
// acknowledges auth with a small fixed tree, then toggles a talk status.
func main() {
	addr := flag.String("addr", "127.0.0.1:5899", "listen address")
	interval := flag.Duration("interval", 2*time.Second, "talk status toggle interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	remote := wstest.NewRemote(defaultAck)
	server := &http.Server{Addr: *addr, Handler: remote, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		talking := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				talking = !talking
				status := `0`
				if talking {
					status = `1`
				}
				frame := `{"type":"talkStatusChanged","payload":{"connectionId":1,"clientId":2,"status":` + status + `,"isWhisper":false}}`
				if err := remote.Push(ctx, frame); err != nil {
					log.Printf("push: %v", err)
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("fake TS5 remote listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %v", err)
	}
}
