package stamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

var journalPrefix = []byte("stamp/run/")

// Record is the persisted progress of one run.
type Record struct {
	State        string        `json:"state"`
	Dir          string        `json:"dir"`
	Counterparty string        `json:"counterparty"`
	Sender       string        `json:"sender"`
	URI          string        `json:"uri,omitempty"`
	StampBlock   types.BlockID `json:"stampBlock"`
	Response     *Response     `json:"response,omitempty"`
	FundAmount   uint64        `json:"fundAmount,omitempty"`
	FundBlock    types.BlockID `json:"fundBlock"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Journal stores run records keyed by (directory, counterparty, sender).
type Journal struct {
	db storage.DB
}

// NewJournal creates a journal over db.
func NewJournal(db storage.DB) *Journal {
	return &Journal{db: storage.NewPrefixDB(db, journalPrefix)}
}

// RunKey identifies a run.
func RunKey(dir string, counterparty, sender types.Address) types.Hash {
	return crypto.HashAll([]byte(dir), []byte{0}, counterparty[:], sender[:])
}

// Load returns the record for key, or nil when there is none.
func (j *Journal) Load(key types.Hash) (*Record, error) {
	data, err := j.db.Get(key[:])
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal load: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("journal decode: %w", err)
	}
	return &rec, nil
}

// Save writes rec under key.
func (j *Journal) Save(key types.Hash, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("journal encode: %w", err)
	}
	if err := j.db.Put(key[:], data); err != nil {
		return fmt.Errorf("journal save: %w", err)
	}
	return nil
}

// Clear removes the record for key.
func (j *Journal) Clear(key types.Hash) error {
	if err := j.db.Delete(key[:]); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("journal clear: %w", err)
	}
	return nil
}
