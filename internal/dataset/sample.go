// Package dataset собирает обучающие примеры: программа выдавливаний,
// скомпилированная в трассу действий, и хранит их в badger или
// публикует во внешние очереди.
package dataset

import (
	"encoding/json"
	"time"

	"github.com/annel0/extrudegen/internal/program"
	"github.com/google/uuid"
)

// Sample один обучающий пример
type Sample struct {
	ID        uuid.UUID       `json:"id"`
	Seed      int64           `json:"seed"`
	CreatedAt time.Time       `json:"created_at"`
	Program   program.Program `json:"program"`
	Trace     program.Trace   `json:"trace"`
}

// Key ключ примера в хранилище
func (s *Sample) Key() []byte {
	return sampleKey(s.ID.String())
}

func sampleKey(id string) []byte {
	return []byte(keyPrefix + id)
}

const keyPrefix = "sample:"

// Encode сериализует пример в JSON
func (s *Sample) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSample разбирает JSON примера
func DecodeSample(data []byte) (*Sample, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
