package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/pkt-cash/pktsign/signing"
)

func testOutcome() *signing.Outcome {
	out := signing.NewOutcome()
	out.AddResult(&signing.Result{InputIndex: 2, SignatureType: signing.Schnorr})
	out.AddResult(&signing.Result{InputIndex: 0, SignatureType: signing.ECDSA})
	out.AddError(1, "bad hash")
	out.Duration = 1500 * time.Millisecond
	return out
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	e := NewEntry(testOutcome(), at)
	require.False(t, e.Success)
	require.Equal(t, int64(1500), e.DurationMs)
	require.Equal(t, time.UTC, e.Time.Location())
	require.Equal(t, []InputStatus{
		{Index: 0, Signed: true, SignatureType: "ecdsa"},
		{Index: 1, Error: "bad hash"},
		{Index: 2, Signed: true, SignatureType: "schnorr"},
	}, e.Inputs)
}

func TestRecordLookup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.Nil(t, err)

	txid := chainhash.HashH([]byte("tx one"))
	other := chainhash.HashH([]byte("tx two"))

	_, err = j.Lookup(&txid)
	require.True(t, ErrNotFound.Is(err), "got %v", err)

	first, err := j.Record(&txid, testOutcome())
	require.Nil(t, err)
	require.Equal(t, uint64(1), first.Seq)

	ok := signing.NewOutcome()
	ok.AddResult(&signing.Result{InputIndex: 1, SignatureType: signing.ECDSA})
	second, err := j.Record(&txid, ok)
	require.Nil(t, err)
	require.Equal(t, uint64(2), second.Seq)

	_, err = j.Record(&other, ok)
	require.Nil(t, err)
	require.Nil(t, j.Close())

	// Entries survive reopening.
	j, err = Open(path)
	require.Nil(t, err)
	defer j.Close()

	entries, err := j.Lookup(&txid)
	require.Nil(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, first.Inputs, entries[0].Inputs)
	require.False(t, entries[0].Success)
	require.True(t, entries[1].Success)
	require.True(t, first.Time.Equal(entries[0].Time))

	entries, err = j.Lookup(&other)
	require.Nil(t, err)
	require.Len(t, entries, 1)
}
