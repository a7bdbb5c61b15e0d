// Package storage хранит секции чанков мира в BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotReady - хранилище закрыто.
var ErrNotReady = errors.New("хранилище не готово")

const (
	chunkPrefix = "chunk:"

	formatJSON byte = 'j'
	formatZstd byte = 'z'
)

// ChunkData - снимок столбца чанка 16×16×Height.
// Cells хранит упакованные состояния (тип<<32 | индекс) в порядке
// ((y-MinY)*16 + z)*16 + x; Payload - метаданные блоков по тому же индексу.
type ChunkData struct {
	Coords  vec.Vec2                       `json:"coords"`
	MinY    int                            `json:"min_y"`
	Height  int                            `json:"height"`
	Cells   []uint64                       `json:"cells"`
	Payload map[int]map[string]interface{} `json:"payload,omitempty"`
}

// WorldStorage представляет собой хранилище данных мира
type WorldStorage struct {
	db       *badger.DB
	dbPath   string
	mutex    sync.RWMutex
	isReady  bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	compress bool
	logger   *logging.Logger
}

// NewWorldStorage открывает хранилище в каталоге dataPath/world.
// Пустой dataPath - хранилище в памяти (для тестов и одноразовых правок).
func NewWorldStorage(dataPath string, compress bool) (*WorldStorage, error) {
	var opts badger.Options
	dbPath := ""
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "world")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать компрессор: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать декомпрессор: %w", err)
	}

	ws := &WorldStorage{
		db:       db,
		dbPath:   dbPath,
		isReady:  true,
		encoder:  encoder,
		decoder:  decoder,
		compress: compress,
		logger:   logging.GetStorageLogger(),
	}
	ws.logger.Info("хранилище открыто: path=%q compress=%v", dbPath, compress)
	return ws, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.encoder.Close()
	ws.decoder.Close()
	return ws.db.Close()
}

func chunkKey(coords vec.Vec2) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", chunkPrefix, coords.X, coords.Y))
}

// SaveChunk сохраняет снимок чанка
func (ws *WorldStorage) SaveChunk(data *ChunkData) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка: %w", err)
	}

	var value []byte
	if ws.compress {
		value = ws.encoder.EncodeAll(raw, append(make([]byte, 0, len(raw)/4+1), formatZstd))
	} else {
		value = append([]byte{formatJSON}, raw...)
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(data.Coords), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	ws.logger.Debug("чанк %v сохранён (%d байт)", data.Coords, len(value))
	return nil
}

// LoadChunk загружает снимок чанка. Если чанк не сохранялся, возвращает nil, false.
func (ws *WorldStorage) LoadChunk(coords vec.Vec2) (*ChunkData, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, false, ErrNotReady
	}

	var value []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := ws.decode(value)
	if err != nil {
		return nil, false, fmt.Errorf("чанк %v: %w", coords, err)
	}
	return data, true, nil
}

func (ws *WorldStorage) decode(value []byte) (*ChunkData, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("пустое значение")
	}
	raw := value[1:]
	switch value[0] {
	case formatJSON:
	case formatZstd:
		var err error
		raw, err = ws.decoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("ошибка распаковки: %w", err)
		}
	default:
		return nil, fmt.Errorf("неизвестный формат %q", value[0])
	}

	var data ChunkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации чанка: %w", err)
	}
	return &data, nil
}

// DeleteChunk удаляет сохранённый чанк
func (ws *WorldStorage) DeleteChunk(coords vec.Vec2) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}
	return ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(coords))
	})
}

// ListChunks возвращает координаты всех сохранённых чанков
func (ws *WorldStorage) ListChunks() ([]vec.Vec2, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var out []vec.Vec2
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var c vec.Vec2
			if _, err := fmt.Sscanf(string(it.Item().Key()), chunkPrefix+"%d:%d", &c.X, &c.Y); err != nil {
				ws.logger.Warn("пропущен ключ %q: %v", it.Item().Key(), err)
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out, nil
}
