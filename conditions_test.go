package realm_test

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/herorealm/realm"
	"github.com/herorealm/realm/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionPrinting(t *testing.T) {
	Convey("test hexademical condition printing", t, func() {
		cond := realm.NewCondition("multisig", "wallet", []byte("ABCD123456LHB"))

		So(cond.String(), ShouldNotEqual, fmt.Sprintf("%X", cond))
		So(cond.String(), ShouldStartWith, "multisig/wallet/")
	})

	Convey("condition addresses are stable and distinct", t, func() {
		a := realm.NewCondition("token", "erc20", []byte("GOLD"))
		b := realm.NewCondition("token", "erc20", []byte("USDH"))

		So(a.Address(), ShouldEqual, a.Address())
		So(a.Address(), ShouldNotEqual, b.Address())
		So(a.Address(), ShouldNotEqual, common.Address{})
	})
}

func TestConditionValidate(t *testing.T) {
	cases := map[string]struct {
		cond    realm.Condition
		wantErr *errors.Error
	}{
		"valid":            {cond: realm.NewCondition("nft", "collection", []byte("heroes"))},
		"missing data":     {cond: realm.Condition("nft/collection/"), wantErr: errors.ErrInput},
		"short extension":  {cond: realm.NewCondition("x", "collection", []byte{1}), wantErr: errors.ErrInput},
		"binary data":      {cond: realm.NewCondition("multisig", "wallet", []byte{0, 0, 0, 1})},
		"missing sections": {cond: realm.Condition("garbage"), wantErr: errors.ErrInput},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.cond.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	hexAddr := common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	bech, err := realm.Bech32Address("realm", hexAddr)
	require.NoError(t, err)

	cases := map[string]struct {
		raw      string
		wantErr  *errors.Error
		wantAddr common.Address
	}{
		"hex": {
			raw:      "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
			wantAddr: hexAddr,
		},
		"bech32": {
			raw:      "bech32:" + bech,
			wantAddr: hexAddr,
		},
		"condition": {
			raw:      "cond:foo/bar/636f6e646974696f6e64617461",
			wantAddr: realm.NewCondition("foo", "bar", []byte("conditiondata")).Address(),
		},
		"invalid condition format": {
			raw:     "cond:foo/636f6e646974696f6e64617461",
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			raw:     "cond:foo/bar/zzzzz",
			wantErr: errors.ErrInput,
		},
		"unknown format": {
			raw:     "foobar:xxx",
			wantErr: errors.ErrType,
		},
		"short hex": {
			raw:     "0x1234",
			wantErr: errors.ErrInput,
		},
		"broken bech32": {
			raw:     "bech32:realm1qqqq",
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			addr, err := realm.ParseAddress(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil {
				assert.Equal(t, tc.wantAddr, addr)
			}
		})
	}
}
