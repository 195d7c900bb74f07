// Command graphin runs GraphQL queries and mutations from the command line.
//
//	graphin query --endpoint https://api.example.com/graphql '{ user { name } }'
//	echo 'mutation { like(id: 1) }' | graphin mutation -e https://api.example.com/graphql -
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
