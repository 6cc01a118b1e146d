// Package lockstore implements the persistent lock store (spec
// component C4): recording, per running build, the exact locks it
// acquired, so the taken-lock collector has an authoritative source
// instead of re-extracting from a build's (possibly stale) parameters.
package lockstore

import (
	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zstd"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

// compressThreshold is the encoded-record size above which records are
// zstd-compressed before being handed to the backing store. Most
// builds hold a handful of locks and never cross it; builds that hold
// many custom-resource locks do.
const compressThreshold = 256

// magic prefixes a compressed record so Load can tell compressed
// records apart from the plain line-oriented ones written by older
// versions of this store (or written directly by an operator).
var magic = []byte{0x28, 0xb5, 0x2f, 0xfd} // zstd frame magic, doubles as our own marker

// Store is the persistent lock store: it encodes/decodes lock records
// and leaves the actual byte storage to a Backend (bitcask, S3,
// Postgres - see pkg/lockstore/backend/*), so the record format here
// never has to change when the backend does.
type Store struct {
	l hclog.Logger
	s Backend

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New wraps backing in a persistent lock store.
func New(l hclog.Logger, backing Backend) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Store{l: l.Named("lockstore"), s: backing, enc: enc, dec: dec}, nil
}

func key(buildID string) []byte {
	return []byte("runninglocks/" + buildID)
}

// Store persists the exact locks a build is holding, called once when
// the build starts (spec §4.4). A write failure is logged and
// returned to the caller; the collector's extraction fallback (spec
// §4.3) means a lost record only risks minor overshoot, not a wedged
// build.
func (s *Store) Store(buildID string, locks []domain.Lock) error {
	raw := encode(locks)
	if len(raw) > compressThreshold {
		raw = s.enc.EncodeAll(raw, nil)
	}
	if err := s.s.Put(key(buildID), raw); err != nil {
		s.l.Warn("Error persisting locks, collector will fall back to extraction", "build", buildID, "error", err)
		return err
	}
	return nil
}

// LocksStored reports whether a persisted record exists for buildID.
func (s *Store) LocksStored(buildID string) bool {
	raw, err := s.s.Get(key(buildID))
	if err != nil {
		s.l.Warn("Error checking for persisted locks", "build", buildID, "error", err)
		return false
	}
	return raw != nil
}

// Load returns the persisted locks for buildID, keyed by name. A
// missing or corrupt record returns an empty map rather than an error,
// consistent with the "fall back to extraction" policy (spec §4.4,
// §7): the caller is expected to check LocksStored first and only call
// Load when it returned true.
func (s *Store) Load(buildID string) map[string]domain.Lock {
	raw, err := s.s.Get(key(buildID))
	if err != nil || raw == nil {
		if err != nil {
			s.l.Warn("Error loading persisted locks", "build", buildID, "error", err)
		}
		return map[string]domain.Lock{}
	}
	if len(raw) >= 4 && raw[0] == magic[0] && raw[1] == magic[1] && raw[2] == magic[2] && raw[3] == magic[3] {
		plain, err := s.dec.DecodeAll(raw, nil)
		if err != nil {
			s.l.Warn("Error decompressing persisted locks, treating as corrupt", "build", buildID, "error", err)
			return map[string]domain.Lock{}
		}
		raw = plain
	}
	return decode(raw)
}

// Remove deletes the persisted record, called when the build ends
// (spec §4.4).
func (s *Store) Remove(buildID string) error {
	if err := s.s.Del(key(buildID)); err != nil {
		s.l.Warn("Error removing persisted locks", "build", buildID, "error", err)
		return err
	}
	return nil
}
