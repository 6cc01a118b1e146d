// Package bc is the default lock store backend: an embedded bitcask
// database, so a single-host deployment needs nothing else running to
// persist running-build lock records.
package bc

import (
	"errors"
	"os"

	"git.mills.io/prologic/bitcask"
	"github.com/hashicorp/go-hclog"

	"github.com/marrowvale/lockarbiter/pkg/lockstore"
)

// keyBudget bounds the longest key bitcask will accept. Every key this
// backend ever sees is lockstore's own "runninglocks/<buildID>" form,
// so this only needs headroom over a generous build id, not the
// kilobyte-scale budget a general-purpose blobstore would reserve.
const keyBudget = 256

// recordBudget bounds the largest value bitcask will accept. Lock
// records are a handful of encoded lock lines per running build -
// kilobytes, not megabytes - so this is sized for that, not for
// arbitrary blob storage.
const recordBudget = 64 * 1024

type bitcaskBackend struct {
	s *bitcask.Bitcask

	l hclog.Logger
}

func init() {
	lockstore.RegisterBackendInit(newFactory)
}

func newFactory() {
	lockstore.RegisterBackend("bitcask", newBitcaskBackend)
}

func newBitcaskBackend(l hclog.Logger) (lockstore.Backend, error) {
	x := new(bitcaskBackend)
	x.l = l.Named("bitcask")

	p := os.Getenv("LOCKARBITER_BITCASK_PATH")
	if p == "" {
		l.Error("LOCKARBITER_BITCASK_PATH must be set")
		return nil, errors.New("required variable unset")
	}

	opts := []bitcask.Option{
		bitcask.WithMaxKeySize(keyBudget),
		bitcask.WithMaxValueSize(recordBudget),
		bitcask.WithSync(true),
	}
	b, err := bitcask.Open(p, opts...)
	if err != nil {
		l.Error("Error initializing bitcask", "error", err)
		return nil, err
	}
	x.s = b

	return x, nil
}

func (b *bitcaskBackend) Get(k []byte) ([]byte, error) {
	v, err := b.s.Get(k)
	switch err {
	case nil:
		return v, nil
	case bitcask.ErrKeyNotFound:
		return nil, nil
	default:
		b.l.Warn("Error reading lock record", "error", err)
		return nil, err
	}
}

func (b *bitcaskBackend) Put(k, v []byte) error {
	if len(v) > recordBudget {
		b.l.Error("Lock record exceeds configured budget, refusing write", "size", len(v), "budget", recordBudget)
		return errors.New("bc: lock record too large")
	}
	return b.s.Put(k, v)
}

func (b *bitcaskBackend) Del(k []byte) error {
	return b.s.Delete(k)
}

func (b *bitcaskBackend) Close() error {
	return b.s.Close()
}
