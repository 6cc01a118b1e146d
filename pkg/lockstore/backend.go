package lockstore

// Backend is the raw byte-oriented store a Store persists encoded lock
// records to. It deliberately knows nothing about locks, builds, or
// resources - bitcask, Postgres, and S3 all satisfy it identically, so
// swapping one for another is a configuration change, not a code
// change (spec §6's "persistence is delegated to a pluggable store").
type Backend interface {
	Get([]byte) ([]byte, error)
	Put([]byte, []byte) error
	Del([]byte) error

	Close() error
}
