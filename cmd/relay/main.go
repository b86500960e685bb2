package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cipherlink/internal/relay"
	"cipherlink/internal/utils/log"
)

func main() {
	listen := flag.String("listen", "localhost:9090", "address to listen on")
	flag.Parse()

	broker := relay.NewBroker()

	server := &http.Server{
		Addr:    *listen,
		Handler: broker.Handler(),
	}

	go func() {
		log.Info("relay listening", zap.String("addr", *listen))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("relay server failed", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	server.Close()
}
