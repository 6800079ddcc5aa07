package btcutil_test

import (
	"fmt"
	"math"

	"github.com/pkt-cash/pktsign/btcutil"
)

func ExampleAmount() {

	a := btcutil.Amount(0)
	fmt.Println("Zero Satoshi:", a)

	a = btcutil.Amount(1e8)
	fmt.Println("100,000,000 Satoshis:", a)

	a = btcutil.Amount(1e5)
	fmt.Println("100,000 Satoshis:", a)
	// Output:
	// Zero Satoshi: 0 BTC
	// 100,000,000 Satoshis: 1 BTC
	// 100,000 Satoshis: 0.001 BTC
}

func ExampleNewAmount() {
	amountOne, err := btcutil.NewAmount(1)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(amountOne)

	amountFraction, err := btcutil.NewAmount(0.01234567)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(amountFraction)

	_, err = btcutil.NewAmount(math.NaN())
	fmt.Println(err.Message())
	// Output: 1 BTC
	// 0.01234567 BTC
	// invalid bitcoin amount
}

func ExampleSumOutputs() {
	total, _ := btcutil.SumOutputs(100000, 250000)
	fmt.Println(total)

	_, err := btcutil.SumOutputs(math.MaxInt64, 1)
	fmt.Println(err.Message())
	// Output: 0.0035 BTC
	// output value 1 out of range
}

func ExampleCommitsTo() {
	script := []byte{0x51}
	fmt.Println(btcutil.CommitsTo(btcutil.Hash160(script), script))
	fmt.Println(btcutil.CommitsTo(btcutil.Sha256(script), script))
	fmt.Println(btcutil.CommitsTo(btcutil.Sha256(script), []byte{0x52}))
	fmt.Println(btcutil.CommitsTo(script, script))
	// Output: true
	// true
	// false
	// false
}
