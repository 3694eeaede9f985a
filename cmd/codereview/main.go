// Command codereview runs the AI code review service.
//
// Usage:
//
//	codereview serve                                   # run the HTTP API
//	codereview review main.go --subject user_2abc      # review a file from the shell
//	codereview history --subject user_2abc             # print stored reviews
//	codereview token --subject user_2abc --ttl 8h      # mint a dev bearer token
//
// Configuration comes from the environment (see .env.example).
package main

import (
	"context"
	"os"

	"github.com/sakif/code-review-assistant/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:]))
}
