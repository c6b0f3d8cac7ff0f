package main

import (
	"context"
	"log"

	"github.com/gatepass/proof-service/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap proof worker: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run proof worker: %v", err)
	}
}
