package host

import (
	"context"
	"os"
	"path/filepath"
	"time"

	extism "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero/api"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/errors"
)

var kvBucket = []byte("kv")

// kvBundle gives extensions a persistent key-value store.
//
//	kv_read(key ptr) -> ptr        empty value when the key is absent
//	kv_write(key ptr, value ptr)
//
// Values live in a single bbolt bucket shared by every extension the
// host loads.
type kvBundle struct {
	h  *Host
	db *bbolt.DB
}

func openKVBundle(path string, h *Host) (*kvBundle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.IO(errors.PhaseHost, "create kv store directory", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.IO(errors.PhaseHost, "open kv store "+path, err)
	}
	return &kvBundle{h: h, db: db}, nil
}

func (b *kvBundle) Name() string { return "kv" }

func (b *kvBundle) Close() error { return b.db.Close() }

func (b *kvBundle) get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(kvBucket)
		if bkt == nil {
			return nil
		}
		if v := bkt.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (b *kvBundle) put(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(kvBucket)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), value)
	})
}

func (b *kvBundle) Functions() []extism.HostFunction {
	read := StackFunc("kv_read",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			key, err := p.ReadString(stack[0])
			if err != nil {
				b.h.logger.Warn("kv_read: read key", zap.Error(err))
				stack[0] = 0
				return
			}
			value, err := b.get(key)
			if err != nil {
				b.h.logger.Warn("kv_read", zap.String("key", key), zap.Error(err))
			}
			stack[0] = writeGuest(b.h, p, "kv_read", value)
		},
		[]api.ValueType{extism.ValueTypePTR}, []api.ValueType{extism.ValueTypePTR})

	write := StackFunc("kv_write",
		func(ctx context.Context, p *extism.CurrentPlugin, stack []uint64) {
			key, err := p.ReadString(stack[0])
			if err != nil {
				b.h.logger.Warn("kv_write: read key", zap.Error(err))
				return
			}
			value, err := p.ReadBytes(stack[1])
			if err != nil {
				b.h.logger.Warn("kv_write: read value", zap.String("key", key), zap.Error(err))
				return
			}
			if err := b.put(key, value); err != nil {
				b.h.logger.Warn("kv_write", zap.String("key", key), zap.Error(err))
			}
		},
		[]api.ValueType{extism.ValueTypePTR, extism.ValueTypePTR}, []api.ValueType{})

	return []extism.HostFunction{read, write}
}
