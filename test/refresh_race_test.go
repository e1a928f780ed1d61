//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/MrEthical07/contactAuth/internal/store/memory"
	"github.com/MrEthical07/contactAuth/principal"
)

func TestRefreshSwapSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	current := "refresh-0"
	if _, err := store.Create(ctx, principal.Principal{Email: "race@x.com", DisplayName: "race", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetRefreshToken(ctx, "race@x.com", &current); err != nil {
		t.Fatalf("SetRefreshToken failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		next := fmt.Sprintf("refresh-%d", i+1)
		go func() {
			defer wg.Done()
			<-start
			swapped, err := store.SwapRefreshToken(ctx, "race@x.com", current, &next)
			if err != nil {
				t.Errorf("swap failed: %v", err)
			}
			results <- swapped
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for swapped := range results {
		if swapped {
			success++
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one winner, got %d", success)
	}
}
