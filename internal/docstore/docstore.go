// Package docstore adapts per-resource document collections onto MongoDB or
// SQLite. Both backends store the same JSON/BSON field names so services stay
// backend agnostic.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoDocument is returned when no document matches an id or filter.
var ErrNoDocument = errors.New("docstore: no document")

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Document is implemented by every stored record.
type Document interface {
	DocumentID() string
}

// Collection is the per-resource store contract.
type Collection[T Document] interface {
	Name() string
	Insert(ctx context.Context, doc T) error
	Get(ctx context.Context, id string) (T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Distinct returns the sorted distinct values of a string field.
	Distinct(ctx context.Context, field string, filter Filter) ([]string, error)
	// Update merges set into the stored document and returns the result.
	Update(ctx context.Context, id string, set map[string]any) (T, error)
	Delete(ctx context.Context, id string) (T, error)
}

// Filter is a conjunction of exact matches, an optional id set and an optional
// case-insensitive substring match ORed across fields.
type Filter struct {
	Equals     map[string]any
	IDs        []string
	Contains   string
	SearchKeys []string
}

// Where returns a filter matching field == value.
func Where(field string, value any) Filter {
	return Filter{}.And(field, value)
}

// And adds another exact-match condition.
func (f Filter) And(field string, value any) Filter {
	equals := make(map[string]any, len(f.Equals)+1)
	for k, v := range f.Equals {
		equals[k] = v
	}
	equals[field] = value
	f.Equals = equals
	return f
}

// MatchAny returns a filter matching documents where any of fields contains query.
func MatchAny(query string, fields ...string) Filter {
	return Filter{Contains: query, SearchKeys: fields}
}

// ByIDs returns a filter matching the given document ids.
func ByIDs(ids ...string) Filter {
	if ids == nil {
		ids = []string{}
	}
	return Filter{IDs: ids}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (f Filter) validate() error {
	for field := range f.Equals {
		if !fieldPattern.MatchString(field) {
			return fmt.Errorf("docstore: invalid field name %q", field)
		}
	}
	for _, field := range f.SearchKeys {
		if !fieldPattern.MatchString(field) {
			return fmt.Errorf("docstore: invalid field name %q", field)
		}
	}
	return nil
}

// NewID generates a document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id could identify a stored document.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// Options selects and configures the backend.
type Options struct {
	Driver     string
	MongoURI   string
	Database   string
	SQLitePath string
}

// Backend owns the underlying database handle.
type Backend struct {
	driver string
	client *mongo.Client
	mongo  *mongo.Database
	sqlite *sql.DB
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMongo:
		client, db, err := openMongo(ctx, opts.MongoURI, opts.Database)
		if err != nil {
			return nil, err
		}
		return &Backend{driver: DriverMongo, client: client, mongo: db}, nil
	case DriverSQLite, "":
		db, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{driver: DriverSQLite, sqlite: db}, nil
	default:
		return nil, fmt.Errorf("docstore: unknown driver %q", opts.Driver)
	}
}

// Driver returns the active backend name.
func (b *Backend) Driver() string { return b.driver }

// Ping verifies connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	if b.client != nil {
		return b.client.Ping(ctx, nil)
	}
	return b.sqlite.PingContext(ctx)
}

// Close releases the connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.client != nil {
		return b.client.Disconnect(ctx)
	}
	return b.sqlite.Close()
}

// Bind returns the named collection on the backend. refs names the fields
// holding ids of documents in other collections; MongoDB stores them, like
// _id, as ObjectIDs.
func Bind[T Document](ctx context.Context, b *Backend, name string, refs ...string) (Collection[T], error) {
	if !fieldPattern.MatchString(name) {
		return nil, fmt.Errorf("docstore: invalid collection name %q", name)
	}
	if b.mongo != nil {
		return newMongoCollection[T](b.mongo, name, refs), nil
	}
	return newSQLiteCollection[T](ctx, b.sqlite, name)
}
