package realmtest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
)

// ParseAddress takes an address in a human readable format and returns its
// binary representation. It fails the test on error.
func ParseAddress(t testing.TB, encodedAddress string) common.Address {
	t.Helper()

	addr, err := realm.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// Big is a shortcut for big.NewInt.
func Big(n int64) *big.Int {
	return big.NewInt(n)
}
