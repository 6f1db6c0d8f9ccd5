package main

import (
	"context"

	"zen-manager/internal/app"
)

func main() {
	app.New().Main(context.Background())
}
