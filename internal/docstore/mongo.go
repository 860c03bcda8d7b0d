package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func openMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	if uri == "" {
		return nil, nil, errors.New("docstore: mongo uri is required")
	}
	if database == "" {
		return nil, nil, errors.New("docstore: mongo database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// mongoCollection stores _id and the reference fields as ObjectIDs so the
// documents stay shared with other clients of the database. Reads need no
// conversion: the default registry decodes an ObjectID into a string as hex.
type mongoCollection[T Document] struct {
	coll *mongo.Collection
	refs map[string]bool
}

func newMongoCollection[T Document](db *mongo.Database, name string, refs []string) *mongoCollection[T] {
	return &mongoCollection[T]{coll: db.Collection(name), refs: refFields(refs)}
}

func refFields(refs []string) map[string]bool {
	set := map[string]bool{"_id": true}
	for _, field := range refs {
		set[field] = true
	}
	return set
}

// objectID converts hex ids, alone or in a list, to ObjectIDs. Anything else
// passes through unchanged.
func objectID(v any) any {
	switch v := v.(type) {
	case string:
		if oid, err := primitive.ObjectIDFromHex(v); err == nil {
			return oid
		}
		return v
	case []string:
		out := make(bson.A, len(v))
		for i, id := range v {
			out[i] = objectID(id)
		}
		return out
	case bson.A:
		out := make(bson.A, len(v))
		for i, id := range v {
			out[i] = objectID(id)
		}
		return out
	default:
		return v
	}
}

func encodeDocument(doc any, refs map[string]bool) (bson.D, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	for i := range d {
		if refs[d[i].Key] {
			d[i].Value = objectID(d[i].Value)
		}
	}
	return d, nil
}

func (c *mongoCollection[T]) Name() string { return c.coll.Name() }

func (c *mongoCollection[T]) Insert(ctx context.Context, doc T) error {
	d, err := encodeDocument(doc, c.refs)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.Name(), err)
	}
	if _, err := c.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert into %s: %w", c.Name(), err)
	}
	return nil
}

func (c *mongoCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if !ValidID(id) {
		return zero, ErrNoDocument
	}
	return c.findOne(ctx, bson.M{"_id": objectID(id)})
}

func (c *mongoCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	query, err := toBSON(filter, c.refs)
	if err != nil {
		return nil, err
	}

	cursor, err := c.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.Name(), err)
	}

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s documents: %w", c.Name(), err)
	}
	return docs, nil
}

func (c *mongoCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	query, err := toBSON(filter, c.refs)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.findOne(ctx, query)
}

func (c *mongoCollection[T]) findOne(ctx context.Context, query bson.M) (T, error) {
	var doc T
	err := c.coll.FindOne(ctx, query).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNoDocument
	}
	if err != nil {
		return doc, fmt.Errorf("find one in %s: %w", c.Name(), err)
	}
	return doc, nil
}

func (c *mongoCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	query, err := toBSON(filter, c.refs)
	if err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Name(), err)
	}
	return n, nil
}

func (c *mongoCollection[T]) Distinct(ctx context.Context, field string, filter Filter) ([]string, error) {
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("docstore: invalid field name %q", field)
	}
	query, err := toBSON(filter, c.refs)
	if err != nil {
		return nil, err
	}
	raw, err := c.coll.Distinct(ctx, field, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", c.Name(), field, err)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (c *mongoCollection[T]) Update(ctx context.Context, id string, set map[string]any) (T, error) {
	var doc T
	if !ValidID(id) {
		return doc, ErrNoDocument
	}
	if len(set) == 0 {
		return c.Get(ctx, id)
	}

	fields := make(bson.M, len(set))
	for field, value := range set {
		if c.refs[field] {
			value = objectID(value)
		}
		fields[field] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.coll.FindOneAndUpdate(ctx, bson.M{"_id": objectID(id)}, bson.M{"$set": fields}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNoDocument
	}
	if err != nil {
		return doc, fmt.Errorf("update %s/%s: %w", c.Name(), id, err)
	}
	return doc, nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, id string) (T, error) {
	var doc T
	if !ValidID(id) {
		return doc, ErrNoDocument
	}

	err := c.coll.FindOneAndDelete(ctx, bson.M{"_id": objectID(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNoDocument
	}
	if err != nil {
		return doc, fmt.Errorf("delete %s/%s: %w", c.Name(), id, err)
	}
	return doc, nil
}

func toBSON(filter Filter, refs map[string]bool) (bson.M, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	query := bson.M{}
	for field, value := range filter.Equals {
		if refs[field] {
			value = objectID(value)
		}
		query[field] = value
	}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": objectID(filter.IDs)}
	}
	if len(filter.SearchKeys) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Contains), Options: "i"}
		or := make(bson.A, 0, len(filter.SearchKeys))
		for _, field := range filter.SearchKeys {
			or = append(or, bson.M{field: pattern})
		}
		query["$or"] = or
	}
	return query, nil
}
