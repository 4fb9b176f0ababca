package main

import (
	"context"
	"fmt"

	"github.com/basalt-build/basalt/internal/env"
)

// cmdenv prints the resolved environment, the way distri's `distri env`
// reports DistriRoot.
func cmdenv(ctx context.Context, args []string) error {
	fmt.Printf("BASALTROOT=%s\n", env.BasaltRoot)
	return nil
}
