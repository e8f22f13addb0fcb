package repository

import (
	"context"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditWriteTimeout = 3 * time.Second

// MongoRepository stores the audit trail of order, catalog and account changes.
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
	service  string
}

var _ AuditRepository = (*MongoRepository)(nil)

func NewMongoRepository(cfg *config.MongoDBConfig, service string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
		service:  service,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog is the stored form of an audit entry.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entity_id"`
	ActorID   uint      `bson:"actor_id" json:"actor_id"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func newAuditLog(service string, entry models.AuditEntry, at time.Time) *AuditLog {
	return &AuditLog{
		Service:   service,
		Action:    entry.Action,
		EntityID:  entry.EntityID,
		ActorID:   entry.ActorID,
		Data:      bson.M(entry.Data),
		CreatedAt: at,
	}
}

func (m *MongoRepository) collection() *mongo.Collection {
	return m.database.Collection(m.config.Collection)
}

// EnsureIndexes creates the index that backs Find.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Record writes entry even if ctx is cancelled once the request completes.
func (m *MongoRepository) Record(ctx context.Context, entry models.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	_, err := m.collection().InsertOne(ctx, newAuditLog(m.service, entry, time.Now()))
	return err
}

// Find returns the newest entries for entityID first.
func (m *MongoRepository) Find(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.collection().Find(ctx, bson.M{"entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := make([]*AuditLog, 0)
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
