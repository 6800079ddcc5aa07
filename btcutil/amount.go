// Copyright (c) 2013, 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcutil

import (
	"math"
	"strconv"

	"github.com/pkt-cash/pktsign/btcutil/er"
)

// SatoshiPerBitcoin is the number of base units in one coin.
const SatoshiPerBitcoin = 1e8

// Amount is a quantity of base units, as found in a transaction output.
type Amount int64

// round converts a floating point number, which may or may not be representable
// as an integer, to the Amount integer type by rounding to the nearest integer.
// This is performed by adding or subtracting 0.5 depending on the sign, and
// relying on integer truncation to round the value to the nearest Amount.
func round(f float64) Amount {
	if f < 0 {
		return Amount(f - 0.5)
	}
	return Amount(f + 0.5)
}

// NewAmount converts a value in coins to an Amount.  It fails only for NaN
// and infinities.
func NewAmount(f float64) (Amount, er.R) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, er.New("invalid bitcoin amount")
	}
	return round(f * SatoshiPerBitcoin), nil
}

// ToBTC is the amount in coins.
func (a Amount) ToBTC() float64 {
	return float64(a) / SatoshiPerBitcoin
}

// String formats the amount in coins with as many decimals as it needs.
func (a Amount) String() string {
	return strconv.FormatFloat(a.ToBTC(), 'f', -8, 64) + " BTC"
}

// SumOutputs adds up values, as found in the outputs spent by a transaction.
// It fails if the total would overflow.
func SumOutputs(values ...int64) (Amount, er.R) {
	var total Amount
	for _, v := range values {
		if v < 0 || Amount(v) > math.MaxInt64-total {
			return 0, er.Errorf("output value %d out of range", v)
		}
		total += Amount(v)
	}
	return total, nil
}
