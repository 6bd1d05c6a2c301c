// tokengen mints an API token for a wallet address. Tokens are issued
// out of band by the operator; the server only verifies them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/util/jwt"
)

func main() {
	address := flag.String("address", "", "wallet address the token authenticates")
	ttl := flag.Int("ttl", 24, "token lifetime in hours")
	verify := flag.String("verify", "", "instead of minting, parse this token and print its claims")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET not set")
		os.Exit(1)
	}

	if *verify != "" {
		claims, err := jwt.ParseAuth("Bearer "+*verify, secret)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid token:", err)
			os.Exit(1)
		}
		for k, v := range claims {
			fmt.Printf("%s=%v\n", k, v)
		}
		return
	}

	addr := model.Address(*address)
	if !addr.Valid() {
		fmt.Fprintln(os.Stderr, "-address must be a 0x-prefixed 20-byte hex address")
		os.Exit(1)
	}

	tok, err := jwt.Issue(secret, string(addr), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue failed:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
