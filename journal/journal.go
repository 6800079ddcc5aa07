// Package journal keeps a record of every signing batch in a bbolt file.
// Each transaction gets a bucket holding one entry per batch, so a packet
// signed in several passes leaves several entries.
package journal

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	jsoniter "github.com/json-iterator/go"
	"go.etcd.io/bbolt"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signing"
)

// Err is the type of every error returned by this package.
var Err er.ErrorType = er.NewErrorType("journal.Err")

var (
	// ErrNotFound is returned by Lookup for a transaction with no entries.
	ErrNotFound = Err.CodeWithDetail("ErrNotFound", "no journal entries for transaction")

	// ErrCorrupt is returned when a stored entry cannot be decoded.
	ErrCorrupt = Err.Code("ErrCorrupt")
)

var (
	// batchesBkt is the top-level bucket storing:
	//   txid => seq (big endian uint64) -> json Entry
	batchesBkt = []byte("batches")
)

// InputStatus is what happened to one input in a batch.
type InputStatus struct {
	Index         int    `json:"index"`
	Signed        bool   `json:"signed"`
	SignatureType string `json:"sigtype,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Entry summarizes one batch.  Signatures themselves are not kept.
type Entry struct {
	Seq        uint64        `json:"seq"`
	Time       time.Time     `json:"time"`
	DurationMs int64         `json:"durationms"`
	Success    bool          `json:"success"`
	Inputs     []InputStatus `json:"inputs"`
}

// NewEntry summarizes outcome, listing inputs in ascending order.
func NewEntry(outcome *signing.Outcome, at time.Time) *Entry {
	e := &Entry{
		Time:       at.UTC(),
		DurationMs: outcome.DurationMs(),
		Success:    outcome.Success,
	}
	for idx, r := range outcome.Signatures {
		e.Inputs = append(e.Inputs, InputStatus{
			Index:         idx,
			Signed:        true,
			SignatureType: r.SignatureType.String(),
		})
	}
	for idx, msg := range outcome.Errors {
		e.Inputs = append(e.Inputs, InputStatus{Index: idx, Error: msg})
	}
	sort.Slice(e.Inputs, func(i, j int) bool {
		return e.Inputs[i].Index < e.Inputs[j].Index
	})
	return e
}

// Journal is an open journal file.  It is safe for concurrent use.
type Journal struct {
	db *bbolt.DB
}

// Open opens the journal at path, creating it if needed.
func Open(path string) (*Journal, er.R) {
	db, errr := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if errr != nil {
		return nil, er.E(errr)
	}
	errr = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(batchesBkt)
		return err
	})
	if errr != nil {
		db.Close()
		return nil, er.E(errr)
	}
	log.Debugf("Opened signing journal %s", path)
	return &Journal{db: db}, nil
}

// Record appends an entry for a batch signed for txid and returns it.
func (j *Journal) Record(txid *chainhash.Hash, outcome *signing.Outcome) (*Entry, er.R) {
	e := NewEntry(outcome, time.Now())
	errr := j.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.Bucket(batchesBkt).CreateBucketIfNotExists(txid[:])
		if err != nil {
			return err
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		e.Seq = seq
		val, err := jsoniter.Marshal(e)
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bkt.Put(key[:], val)
	})
	if errr != nil {
		return nil, er.E(errr)
	}
	log.Tracef("Journaled batch %d for %v", e.Seq, txid)
	return e, nil
}

// Lookup returns every entry recorded for txid, oldest first.
func (j *Journal) Lookup(txid *chainhash.Hash) ([]*Entry, er.R) {
	var entries []*Entry
	var err er.R
	errr := j.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(batchesBkt).Bucket(txid[:])
		if bkt == nil {
			err = ErrNotFound.New(txid.String(), nil)
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			e := new(Entry)
			if errr := jsoniter.Unmarshal(v, e); errr != nil {
				err = ErrCorrupt.New(fmt.Sprintf("%v entry %x", txid, k), er.E(errr))
				return errr
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if errr != nil {
		return nil, er.E(errr)
	}
	return entries, nil
}

// Close closes the journal file.
func (j *Journal) Close() er.R {
	return er.E(j.db.Close())
}
