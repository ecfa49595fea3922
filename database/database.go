package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/zk-bridge-api/database/models"
)

const (
	transactionsCollection         = "transactions"
	withdrawalProofsCollection     = "withdrawal_proofs"
	withdrawalsFinalizedCollection = "withdrawals_finalized"
	lastIndexedBlockCollection     = "last_indexed_block"
)

type Database struct {
	client       *mongo.Client
	databaseName string
	logger       *slog.Logger
}

type DatabaseOpts struct {
	URI          string
	DatabaseName string
	Logger       *slog.Logger
}

const (
	defaultTimeout   = 10 * time.Second
	duplicateKeyCode = 11000
)

func NewDatabase(opts DatabaseOpts) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnecting(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewDatabaseWithClient(client, opts), nil
}

// NewDatabaseWithClient wraps an already connected client.
func NewDatabaseWithClient(client *mongo.Client, opts DatabaseOpts) *Database {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Database{
		client:       client,
		databaseName: opts.DatabaseName,
		logger:       opts.Logger,
	}
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.databaseName).Collection(name)
}

func (db *Database) CreateIndexes(ctx context.Context) error {
	// a withdrawal is tracked once per L1 message, a deposit once per L1 request
	_, err := db.collection(transactionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "tx_hash", Value: 1}, {Key: "message_index", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "l2_tx_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "block_time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "from", Value: 1}}},
		{Keys: bson.D{{Key: "to", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transactions indexes: %w", err)
	}

	for _, name := range []string{withdrawalProofsCollection, withdrawalsFinalizedCollection} {
		_, err = db.collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "tx_hash", Value: 1}, {Key: "message_index", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", name, err)
		}
	}

	return nil
}

// onlyDuplicates reports whether every write error of an unordered insert is a
// duplicate key, i.e. the documents were stored before.
func onlyDuplicates(err error) bool {
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil {
		return false
	}
	for _, writeErr := range bulkErr.WriteErrors {
		if writeErr.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

func buildFilter(f models.Filter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.From != "" {
		filter["from"] = f.From
	}
	if f.To != "" {
		filter["to"] = f.To
	}
	if f.TxHash != "" {
		filter["$or"] = bson.A{bson.M{"tx_hash": f.TxHash}, bson.M{"l2_tx_hash": f.TxHash}}
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	return filter
}

// lookupByMessage joins the record of collection from that belongs to the same
// transaction and message index, leaving field as nil when there is none.
func lookupByMessage(from, field string) []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{{Key: "hash", Value: "$tx_hash"}, {Key: "index", Value: "$message_index"}}},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$tx_hash", "$$hash"}}},
					bson.D{{Key: "$eq", Value: bson.A{"$message_index", "$$index"}}},
				}}}}}}},
				{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
			}},
			{Key: "as", Value: field},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + field},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}
