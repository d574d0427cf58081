package dbclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"whiteboard/internal/config"
	"whiteboard/internal/domain"
)

const defaultCollection = "elements"

// mongoSource implements Source for a MongoDB collection. Query, when set,
// is an Extended JSON filter document.
type mongoSource struct {
	client     *mongo.Client
	dbName     string
	collection string
	filter     bson.D
}

func buildMongoURI(cfg config.SourceConfig, password string) string {
	// A full connection string (Atlas mongodb+srv:// or mongodb://) is used as is.
	if strings.HasPrefix(cfg.DSN, "mongodb+srv://") || strings.HasPrefix(cfg.DSN, "mongodb://") {
		uri := cfg.DSN
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
		return uri
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	if cfg.User != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, password, cfg.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", cfg.Host, port)
}

func parseMongoFilter(query string) (bson.D, error) {
	if strings.TrimSpace(query) == "" {
		return bson.D{}, nil
	}
	var filter bson.D
	if err := bson.UnmarshalExtJSON([]byte(query), false, &filter); err != nil {
		return nil, fmt.Errorf("parse mongo filter: %w", err)
	}
	return filter, nil
}

func newMongoSource(cfg config.SourceConfig, password string) (*mongoSource, error) {
	filter, err := parseMongoFilter(cfg.Query)
	if err != nil {
		return nil, err
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = "test"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = defaultCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(buildMongoURI(cfg, password)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoSource{client: client, dbName: dbName, collection: coll, filter: filter}, nil
}

func (m *mongoSource) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoSource) LoadElements(ctx context.Context) ([]domain.Element, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := m.client.Database(m.dbName).Collection(m.collection)
	cursor, err := coll.Find(ctx, m.filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.collection, err)
	}
	out := make([]domain.Element, 0, len(docs))
	for i, doc := range docs {
		e, err := elementFromDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// elementFromDoc maps a document onto an element. "id" wins over "_id".
func elementFromDoc(doc bson.M) (domain.Element, error) {
	id := toString(doc["id"])
	if id == "" {
		switch v := doc["_id"].(type) {
		case bson.ObjectID:
			id = v.Hex()
		case nil:
		default:
			id = toString(v)
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	return elementFromValues([]any{
		id, doc["type"], doc["x"], doc["y"], doc["width"], doc["height"], doc["rotation"], doc["visible"],
	})
}

func (m *mongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
