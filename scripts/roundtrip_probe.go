//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Splendor-Protocol/text-prompting/prompting"
	"github.com/Splendor-Protocol/text-prompting/prompting/config"
	"github.com/Splendor-Protocol/text-prompting/prompting/exchange"
)

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

// staticBackend answers every conversation with a canned completion.
type staticBackend struct{}

func (staticBackend) Complete(ctx context.Context, roles, messages []string) (string, error) {
	if len(messages) == 0 {
		return "(no prompt)", nil
	}
	return fmt.Sprintf("probe answer to %q", messages[len(messages)-1]), nil
}

// RunRoundTripProbe executes the exchange smoke checks end to end.
func RunRoundTripProbe() {
	fmt.Println("Smoke test: prompt exchange round trip")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadConfig("")
	must(err, "load config")
	cfg.Exchange.CacheEnabled = true

	factory := exchange.NewFactory(cfg, logger)
	ex := factory.CreateLoopbackExchange(staticBackend{})

	msg, err := prompting.New(
		[]string{"system", "user"},
		[]string{"You are a terse assistant.", "Name a prime between 40 and 50."},
	)
	must(err, "build message")

	reply, err := ex.Do(context.Background(), msg)
	must(err, "round trip")
	if reply.Completion() == "" {
		log.Fatal("round trip returned empty completion")
	}
	fmt.Println("OK: round trip")

	// Second pass should be answered from the completion cache
	again, err := ex.Do(context.Background(), msg)
	must(err, "cached round trip")
	if again.Completion() != reply.Completion() {
		log.Fatalf("cache replay diverged: %q vs %q", again.Completion(), reply.Completion())
	}
	fmt.Println("OK: cache replay")

	// A tampered envelope must be refused by the responder
	payload, err := prompting.Encode(msg)
	must(err, "encode")
	tampered := []byte(strings.Replace(string(payload), "prime", "composite", 1))
	responder := factory.CreateResponder(staticBackend{})
	if _, err := responder.Respond(context.Background(), tampered); err == nil {
		log.Fatal("tampered envelope was accepted")
	}
	fmt.Println("OK: tamper rejected")

	fmt.Println("Smoke test passed")
}
