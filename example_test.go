package ruvy_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Shopify/ruvy"
	"github.com/Shopify/ruvy/internal/testing/guestmod"
)

// This builds a module from an engine and a script, then runs it.
//
// A real engine comes from cmd/ruvy-engine. Here a tiny stand-in echoes the script it initialized with.
func Example() {
	ctx := context.Background()
	engine := guestmod.Echo().Encode()

	mod, err := ruvy.Build(ctx, engine, "Hello world\n", ruvy.NewBuildConfig())
	if err != nil {
		log.Fatal(err)
	}

	code, err := ruvy.Run(ctx, mod, ruvy.NewRunConfig().WithStdout(os.Stdout))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("exit code:", code)

	// Output:
	// Hello world
	// exit code: 0
}
