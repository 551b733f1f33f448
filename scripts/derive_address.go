// derive_address.go prints the stamp wallet address for a mnemonic, e.g. to
// fund it on a devnet.
// Usage: INPUT_MNEMONIC="..." go run scripts/derive_address.go [account] [index]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

func main() {
	mnemonic := os.Getenv("INPUT_MNEMONIC")
	if mnemonic == "" {
		fmt.Fprintln(os.Stderr, "usage: INPUT_MNEMONIC=<phrase> derive_address [account] [index]")
		os.Exit(1)
	}
	var path [2]uint32
	for i, arg := range os.Args[1:min(len(os.Args), 3)] {
		n, err := strconv.ParseUint(arg, 10, 31)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		path[i] = uint32(n)
	}

	sm, err := wallet.NewSecretManagerAt(mnemonic, path[0], path[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	addr, err := sm.Address()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("address=%s\n", addr.Bech32(types.DevnetHRP))
	fmt.Printf("hex=%s\n", addr.Hex())
}
