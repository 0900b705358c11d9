package sentgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/dekarrin/sentgen/internal/export"
	"github.com/dekarrin/sentgen/internal/export/inmem"
	"github.com/dekarrin/sentgen/internal/export/s3sink"
	"github.com/dekarrin/sentgen/internal/export/sqlstore"
	"github.com/dekarrin/sentgen/internal/export/textfile"
)

// DestType is the type of an export destination.
type DestType string

func (dt DestType) String() string {
	return string(dt)
}

const (
	DestNone     DestType = "none"
	DestInMemory DestType = "inmem"
	DestFile     DestType = "file"
	DestSQLite   DestType = "sqlite"
	DestPostgres DestType = "postgres"
	DestS3       DestType = "s3"
)

// ParseDestType parses a string found in a destination string into a
// DestType.
func ParseDestType(s string) (DestType, error) {
	sLower := strings.ToLower(s)

	switch sLower {
	case DestInMemory.String():
		return DestInMemory, nil
	case DestFile.String():
		return DestFile, nil
	case DestSQLite.String():
		return DestSQLite, nil
	case DestPostgres.String(), "postgresql":
		return DestPostgres, nil
	case DestS3.String():
		return DestS3, nil
	default:
		return DestNone, fmt.Errorf("destination type not one of 'inmem', 'file', 'sqlite', 'postgres', or 's3': %q", s)
	}
}

// Destination is where exported sentences are written.
type Destination struct {
	// Type is the type of destination. It also determines which of the other
	// fields are valid.
	Type DestType

	// Path is the file for DestFile, where textfile.Stdout means standard
	// output, and the storage directory for DestSQLite.
	Path string

	// DSN is the data source name for DestPostgres.
	DSN string

	// Location is the "BUCKET/KEY" of the object for DestS3.
	Location string
}

// String gives the destination in the form accepted by ParseDestination.
func (d Destination) String() string {
	switch d.Type {
	case DestInMemory:
		return d.Type.String()
	case DestFile, DestSQLite:
		return d.Type.String() + ":" + d.Path
	case DestPostgres:
		return d.Type.String() + ":" + d.DSN
	case DestS3:
		return d.Type.String() + ":" + d.Location
	default:
		return DestNone.String()
	}
}

// Readable returns whether the destination can give back what was written to
// it.
func (d Destination) Readable() bool {
	return d.Type == DestInMemory || d.Type == DestSQLite || d.Type == DestPostgres
}

// Open performs all logic needed to create the configured destination and
// prepare it for writing.
func (d Destination) Open(ctx context.Context) (export.Sink, error) {
	switch d.Type {
	case DestFile:
		sink, err := textfile.Open(d.Path)
		if err != nil {
			return nil, fmt.Errorf("open output file: %w", err)
		}
		return sink, nil
	case DestS3:
		sink, err := s3sink.Open(ctx, d.Location)
		if err != nil {
			return nil, fmt.Errorf("initialize s3: %w", err)
		}
		return sink, nil
	default:
		return d.OpenStore()
	}
}

// OpenStore is the same as Open but only accepts destinations that are
// Readable.
func (d Destination) OpenStore() (export.Store, error) {
	switch d.Type {
	case DestInMemory:
		return inmem.NewStore(), nil
	case DestSQLite:
		store, err := sqlstore.OpenSQLite(d.Path)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite: %w", err)
		}
		return store, nil
	case DestPostgres:
		store, err := sqlstore.OpenPostgres(d.DSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres: %w", err)
		}
		return store, nil
	case DestFile, DestS3:
		return nil, fmt.Errorf("%s destination cannot be read back", d.Type)
	case DestNone:
		return nil, fmt.Errorf("cannot open 'none' destination")
	default:
		return nil, fmt.Errorf("unknown destination type: %q", d.Type.String())
	}
}

// Validate returns an error if the Destination does not have the fields set
// that its type needs.
func (d Destination) Validate() error {
	switch d.Type {
	case DestInMemory:
		return nil
	case DestFile, DestSQLite:
		if d.Path == "" {
			return fmt.Errorf("path not set")
		}
		return nil
	case DestPostgres:
		if d.DSN == "" {
			return fmt.Errorf("DSN not set")
		}
		return nil
	case DestS3:
		if _, _, err := s3sink.ParseLocation(d.Location); err != nil {
			return err
		}
		return nil
	case DestNone:
		return fmt.Errorf("'none' destination is not valid")
	default:
		return fmt.Errorf("unknown destination type: %q", d.Type.String())
	}
}

// ParseDestination parses a destination string of the form "type:params" (or
// just "type" if no other params are required) into a Destination. For
// example, "sqlite:/data" stores sentences in a SQLite database in the /data
// directory, "file:out.txt" writes them one per line to out.txt, and
// "s3:lists/cs.txt" uploads them to key cs.txt in bucket lists. A lone "-" is
// the same as "file:-" and writes to standard output.
func ParseDestination(s string) (Destination, error) {
	s = strings.TrimSpace(s)
	if s == textfile.Stdout {
		return Destination{Type: DestFile, Path: textfile.Stdout}, nil
	}

	var paramStr string
	parts := strings.SplitN(s, ":", 2)

	if len(parts) == 2 {
		paramStr = strings.TrimSpace(parts[1])
	}

	destType, err := ParseDestType(strings.TrimSpace(parts[0]))
	if err != nil {
		return Destination{}, fmt.Errorf("unsupported destination: %w", err)
	}

	var d Destination
	switch destType {
	case DestInMemory:
		if paramStr != "" {
			return Destination{}, fmt.Errorf("unsupported param(s) for in-memory destination: %s", paramStr)
		}
		d = Destination{Type: DestInMemory}
	case DestFile:
		d = Destination{Type: DestFile, Path: paramStr}
	case DestSQLite:
		d = Destination{Type: DestSQLite, Path: paramStr}
	case DestPostgres:
		d = Destination{Type: DestPostgres, DSN: paramStr}
	case DestS3:
		d = Destination{Type: DestS3, Location: paramStr}
	default:
		return Destination{}, fmt.Errorf("unknown destination type: %q", destType.String())
	}

	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("%s destination: %w", destType, err)
	}
	return d, nil
}
