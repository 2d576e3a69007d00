package toolwire_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/toolwire/toolwire"
	"github.com/toolwire/toolwire/registry"
	"github.com/toolwire/toolwire/transport"
)

// Example demonstrates registering a typed tool and serving a single
// payload over stdio.
func Example() {
	type SearchInput struct {
		Query string `json:"query" jsonschema:"required"`
		Limit int    `json:"limit" jsonschema:"maximum=100"`
	}

	reg := registry.New()
	reg.Tool("search").
		Description("Search for documents").
		Handler(func(ctx context.Context, input SearchInput) ([]string, error) {
			return []string{"result1", "result2"}, nil
		})

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"search","params":{"query":"go"}}` + "\n")
	var out bytes.Buffer

	srv := toolwire.NewServer(reg)
	if err := srv.ServeStdio(context.Background(),
		transport.WithStdin(in), transport.WithStdout(&out)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Print(out.String())
	// Output: {"jsonrpc":"2.0","result":["result1","result2"],"id":1}
}

// Example_client demonstrates calling a served tool through the client.
func Example_client() {
	reg := registry.New()
	reg.Tool("greet").Handler(func(in struct {
		Name string `json:"name"`
	}) (string, error) {
		return "Hello, " + in.Name, nil
	})

	fmt.Println("registered:", reg.List())
	// Output: registered: [greet]
}
