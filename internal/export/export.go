// Package export provides the destinations that generated sentences are
// written to. A Sink only accepts sentences; a Store can also give them back.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

// Record is one exported sentence.
type Record struct {
	ID      uuid.UUID
	Grammar string
	Text    string
	Words   int

	// Seed is the seed of the source the sentence was generated from.
	Seed int64

	// Repairs is the number of forced terminal repairs made while deriving
	// the sentence.
	Repairs int

	Created time.Time
}

// Sink is a destination for records.
type Sink interface {
	// Write stores r. The ID and creation time are assigned by the Sink if
	// they are not already set, and the record as stored is returned.
	Write(ctx context.Context, r Record) (Record, error)

	// Close flushes any buffered records and releases the Sink's resources.
	Close() error
}

// Store is a Sink whose records can be read back.
type Store interface {
	Sink

	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	GetAll(ctx context.Context) ([]Record, error)
	GetAllByGrammar(ctx context.Context, grammar string) ([]Record, error)
}

// Prepare fills in the ID and creation time of r if they are not set.
func Prepare(r Record) (Record, error) {
	if r.ID == uuid.Nil {
		newUUID, err := uuid.NewRandom()
		if err != nil {
			return r, fmt.Errorf("could not generate ID: %w", err)
		}
		r.ID = newUUID
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}
	return r, nil
}

func (r Record) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncBinary(r.ID)...)
	data = append(data, rezi.EncString(r.Grammar)...)
	data = append(data, rezi.EncString(r.Text)...)
	data = append(data, rezi.EncInt(r.Words)...)
	data = append(data, rezi.EncInt(int(r.Seed))...)
	data = append(data, rezi.EncInt(r.Repairs)...)
	data = append(data, rezi.EncInt(int(r.Created.Unix()))...)

	return data, nil
}

func (r *Record) UnmarshalBinary(data []byte) error {
	var err error
	var bytesRead int

	bytesRead, err = rezi.DecBinary(data, &r.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	data = data[bytesRead:]

	r.Grammar, bytesRead, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("grammar: %w", err)
	}
	data = data[bytesRead:]

	r.Text, bytesRead, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	data = data[bytesRead:]

	r.Words, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("words: %w", err)
	}
	data = data[bytesRead:]

	var seed int
	seed, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	r.Seed = int64(seed)
	data = data[bytesRead:]

	r.Repairs, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("repairs: %w", err)
	}
	data = data[bytesRead:]

	var created int
	created, _, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("created: %w", err)
	}
	r.Created = time.Unix(int64(created), 0)

	return nil
}
