// Command sign-order builds a pair order, computes its commit-reveal
// commitment hash, and signs the commitment on the trader's behalf, printing
// the commit and reveal payloads a client would submit to the API in turn.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/convexfx/engine/pkg/crypto"
	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/traderauth"
	"github.com/convexfx/engine/pkg/types"
)

func main() {
	fmt.Println("Generating new keypair...")
	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		fmt.Printf("Error generating nonce: %v\n", err)
		os.Exit(1)
	}
	limitRatio := 1.15
	budget, err := types.FromFloat64(1000.0)
	if err != nil {
		fmt.Printf("Error building budget: %v\n", err)
		os.Exit(1)
	}

	order := types.PairOrder{
		ID:              types.OrderId(fmt.Sprintf("order-%d", nonce)),
		Trader:          types.AccountId(signer.Address()),
		Pay:             types.EUR,
		Receive:         types.USD,
		Budget:          budget,
		LimitRatio:      &limitRatio,
		MinFillFraction: nil,
	}
	if err := order.Validate(); err != nil {
		fmt.Printf("Error: built an invalid order: %v\n", err)
		os.Exit(1)
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		fmt.Printf("Error generating salt: %v\n", err)
		os.Exit(1)
	}

	commitment, err := orderbook.ComputeCommitment(order, salt)
	if err != nil {
		fmt.Printf("Error computing commitment: %v\n", err)
		os.Exit(1)
	}

	envelope, err := traderauth.SignCommitment(signer, commitment)
	if err != nil {
		fmt.Printf("Error signing commitment: %v\n", err)
		os.Exit(1)
	}

	valid, err := traderauth.VerifyEnvelope(envelope)
	if err != nil || !valid {
		fmt.Printf("Error: envelope failed self-verification (valid=%v err=%v)\n", valid, err)
		os.Exit(1)
	}

	fmt.Println("Order:")
	orderJSON, _ := json.MarshalIndent(order, "", "  ")
	fmt.Println(string(orderJSON))

	fmt.Println("\nCommit phase -- POST /api/v1/epochs/{epoch}/commit")
	envelopeJSON, _ := json.MarshalIndent(envelope, "", "  ")
	fmt.Println(string(envelopeJSON))

	fmt.Println("\nReveal phase -- POST /api/v1/epochs/{epoch}/reveal")
	revealJSON, _ := json.MarshalIndent(map[string]string{
		"order": string(orderJSON),
		"salt":  hex.EncodeToString(salt),
	}, "", "  ")
	fmt.Println(string(revealJSON))

	verifies, err := orderbook.VerifyCommitment(order, salt, commitment)
	if err != nil {
		fmt.Printf("Error verifying commitment: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nCommitment verifies against order+salt:", verifies)
}
