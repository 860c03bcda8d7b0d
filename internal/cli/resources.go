package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/learnhub/backend/internal/app"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/model/mcq"
	"github.com/learnhub/backend/internal/model/react"
	"github.com/learnhub/backend/internal/model/topic"
)

// resource binds a CLI name to its collection and document type.
type resource struct {
	name       string
	collection string
	export     func(ctx context.Context, b *docstore.Backend) (any, error)
	load       func(ctx context.Context, b *docstore.Backend, data []byte) (int, error)
	count      func(ctx context.Context, b *docstore.Backend) (int64, error)
}

func newResource[T docstore.Document](name, collection string, refs ...string) resource {
	return resource{
		name:       name,
		collection: collection,
		export: func(ctx context.Context, b *docstore.Backend) (any, error) {
			coll, err := docstore.Bind[T](ctx, b, collection, refs...)
			if err != nil {
				return nil, err
			}
			return coll.Find(ctx, docstore.Filter{})
		},
		load: func(ctx context.Context, b *docstore.Backend, data []byte) (int, error) {
			coll, err := docstore.Bind[T](ctx, b, collection, refs...)
			if err != nil {
				return 0, err
			}
			return importDocuments(ctx, coll, data, time.Now().UTC())
		},
		count: func(ctx context.Context, b *docstore.Backend) (int64, error) {
			coll, err := docstore.Bind[T](ctx, b, collection, refs...)
			if err != nil {
				return 0, err
			}
			return coll.Count(ctx, docstore.Filter{})
		},
	}
}

var resources = map[string]resource{
	"systemdesign":   newResource[topic.Topic]("systemdesign", app.CollectionSystemDesign),
	"agentic-ai":     newResource[topic.Topic]("agentic-ai", app.CollectionAgenticAI),
	"mcq-training":   newResource[mcq.Question]("mcq-training", app.CollectionMCQ),
	"react-learning": newResource[react.Section]("react-learning", app.CollectionReactLearning, react.SectionRefs...),
	"react-topics":   newResource[react.Topic]("react-topics", app.CollectionReactTopics, react.TopicRefs...),
}

func resourceNames() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (resource, error) {
	res, ok := resources[name]
	if !ok {
		return resource{}, fmt.Errorf("unknown resource %q (want one of %s)", name, strings.Join(resourceNames(), ", "))
	}
	return res, nil
}

// importDocuments inserts a JSON array of documents. Documents without an
// _id get a fresh one and both timestamps. Extended JSON wrappers written by
// mongoexport ({"$oid": ...}, {"$date": ...}) are unwrapped first.
func importDocuments[T docstore.Document](ctx context.Context, coll docstore.Collection[T], data []byte, now time.Time) (int, error) {
	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return 0, fmt.Errorf("parse json array: %w", err)
	}

	imported := 0
	for i, fields := range raws {
		for key, value := range fields {
			fields[key] = unwrapExtended(value)
		}
		switch id := fields["_id"].(type) {
		case nil:
			fields["_id"] = docstore.NewID()
		case string:
			if id == "" {
				fields["_id"] = docstore.NewID()
			} else if !docstore.ValidID(id) {
				return imported, fmt.Errorf("document %d: invalid _id %q", i, id)
			}
		default:
			return imported, fmt.Errorf("document %d: unsupported _id %v", i, id)
		}
		if _, ok := fields["createdAt"]; !ok {
			fields["createdAt"] = now
		}
		if _, ok := fields["updatedAt"]; !ok {
			fields["updatedAt"] = now
		}

		encoded, err := json.Marshal(fields)
		if err != nil {
			return imported, fmt.Errorf("document %d: %w", i, err)
		}
		var doc T
		if err := json.Unmarshal(encoded, &doc); err != nil {
			return imported, fmt.Errorf("document %d: %w", i, err)
		}
		if err := coll.Insert(ctx, doc); err != nil {
			return imported, fmt.Errorf("document %d: %w", i, err)
		}
		imported++
	}
	return imported, nil
}

// unwrapExtended replaces {"$oid": s} and {"$date": s} with s, inside arrays
// too.
func unwrapExtended(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if len(v) != 1 {
			return v
		}
		for _, key := range []string{"$oid", "$date"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
		return v
	case []any:
		for i := range v {
			v[i] = unwrapExtended(v[i])
		}
		return v
	default:
		return v
	}
}
