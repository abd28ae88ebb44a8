package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound пример с таким ID отсутствует
var ErrNotFound = errors.New("sample not found")

// ErrStoreClosed хранилище уже закрыто
var ErrStoreClosed = errors.New("store is closed")

// Первый байт значения указывает кодек, поэтому базу можно открыть
// с другой настройкой сжатия и прочитать старые записи.
const (
	codecRaw  byte = 0
	codecZstd byte = 1
)

// Store хранилище примеров поверх BadgerDB
type Store struct {
	db       *badger.DB
	dbPath   string
	mutex    sync.RWMutex
	isReady  bool
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// OpenStore открывает (или создает) хранилище в dataPath/samples.
// compression: "zstd" или "none".
func OpenStore(dataPath, compression string) (*Store, error) {
	var compress bool
	switch compression {
	case "zstd", "":
		compress = true
	case "none":
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	dbPath := filepath.Join(dataPath, "samples")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		encoder.Close()
		decoder.Close()
		return nil, fmt.Errorf("open badger %s: %w", dbPath, err)
	}

	return &Store{
		db:       db,
		dbPath:   dbPath,
		isReady:  true,
		compress: compress,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

// Path каталог базы
func (st *Store) Path() string { return st.dbPath }

// Close закрывает хранилище; повторный вызов безопасен
func (st *Store) Close() error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if !st.isReady {
		return nil
	}
	st.isReady = false
	st.encoder.Close()
	st.decoder.Close()
	return st.db.Close()
}

// Put сохраняет пример под ключом sample:<id>
func (st *Store) Put(s *Sample) error {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if !st.isReady {
		return ErrStoreClosed
	}

	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encode sample %s: %w", s.ID, err)
	}
	value := st.pack(data)

	err = st.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.Key(), value)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Get читает пример по ID
func (st *Store) Get(id string) (*Sample, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if !st.isReady {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sampleKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return st.unpack(data)
}

// List возвращает до limit примеров в порядке ключей; limit <= 0: все
func (st *Store) List(limit int) ([]*Sample, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if !st.isReady {
		return nil, ErrStoreClosed
	}

	var out []*Sample
	err := st.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			s, err := st.unpack(data)
			if err != nil {
				return fmt.Errorf("key %s: %w", it.Item().Key(), err)
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count число сохраненных примеров
func (st *Store) Count() (int, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if !st.isReady {
		return 0, ErrStoreClosed
	}

	n := 0
	err := st.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Delete удаляет пример; отсутствующий ID дает ErrNotFound
func (st *Store) Delete(id string) error {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if !st.isReady {
		return ErrStoreClosed
	}

	err := st.db.Update(func(txn *badger.Txn) error {
		key := sampleKey(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (st *Store) pack(data []byte) []byte {
	if !st.compress {
		return append([]byte{codecRaw}, data...)
	}
	return st.encoder.EncodeAll(data, []byte{codecZstd})
}

func (st *Store) unpack(value []byte) (*Sample, error) {
	if len(value) == 0 {
		return nil, errors.New("empty value")
	}
	data := value[1:]
	switch value[0] {
	case codecRaw:
	case codecZstd:
		var err error
		data, err = st.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown codec %d", value[0])
	}
	return DecodeSample(data)
}
