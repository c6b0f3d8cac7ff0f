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
		log.Fatalf("bootstrap proof api: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run proof api: %v", err)
	}
}
