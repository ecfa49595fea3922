package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/zk-bridge-api/database/models"
)

// CreateTransaction stores tx and reports whether it was new. A transaction
// that is already tracked is left untouched.
func (db *Database) CreateTransaction(ctx context.Context, tx models.Transaction) (bool, error) {
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := db.collection(transactionsCollection).InsertOne(ctx, tx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create transaction: %w", err)
	}

	return true, nil
}

func (db *Database) BatchCreateTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now()
	documents := make([]interface{}, len(txs))
	for i, tx := range txs {
		tx.CreatedAt = now
		tx.UpdatedAt = now
		documents[i] = tx
	}

	_, err := db.collection(transactionsCollection).InsertMany(
		ctx,
		documents,
		options.InsertMany().SetOrdered(false),
	)
	if err != nil && !onlyDuplicates(err) {
		return fmt.Errorf("failed to create transactions: %w", err)
	}

	return nil
}

// GetTransactionByHash finds a transaction by its origin hash or, for
// deposits, by the hash of the L2 priority operation.
func (db *Database) GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "tx_hash", Value: hash}},
			bson.D{{Key: "l2_tx_hash", Value: hash}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "message_index", Value: 1}}}},
		{{Key: "$limit", Value: 1}},
	}

	txs, err := db.aggregateTransactions(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by hash: %w", err)
	}
	if len(txs) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return &txs[0], nil
}

// GetWithdrawal returns the withdrawal of the given L2 transaction and message index.
func (db *Database) GetWithdrawal(ctx context.Context, txHash string, messageIndex int) (*models.Transaction, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "type", Value: models.TypeWithdrawal},
			{Key: "tx_hash", Value: txHash},
			{Key: "message_index", Value: messageIndex},
		}}},
		{{Key: "$limit", Value: 1}},
	}

	txs, err := db.aggregateTransactions(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if len(txs) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return &txs[0], nil
}

func (db *Database) GetTransactions(ctx context.Context, filter models.Filter, page int64, pageSize int64) (*models.PaginatedResult, error) {
	mongoFilter := buildFilter(filter)
	skip := (page - 1) * pageSize

	totalCount, err := db.collection(transactionsCollection).CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter}},
		{{Key: "$sort", Value: bson.D{{Key: "block_time", Value: -1}}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: pageSize}},
	}

	transactions, err := db.aggregateTransactions(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResult{
		Items:      transactions,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// aggregateTransactions runs pipeline and joins proof and finalization records
// onto the resulting transactions.
func (db *Database) aggregateTransactions(ctx context.Context, pipeline mongo.Pipeline) ([]models.Transaction, error) {
	pipeline = append(pipeline, lookupByMessage(withdrawalProofsCollection, "proof")...)
	pipeline = append(pipeline, lookupByMessage(withdrawalsFinalizedCollection, "finalize_tx")...)

	cursor, err := db.collection(transactionsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to execute aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	transactions := []models.Transaction{}
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, nil
}

func (db *Database) GetTransactionsByStatus(ctx context.Context, status string, txType string) ([]models.Transaction, error) {
	filter := bson.D{{Key: "status", Value: status}, {Key: "type", Value: txType}}

	cursor, err := db.collection(transactionsCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "block_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by status: %w", err)
	}
	defer cursor.Close(ctx)

	var transactions []models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, nil
}

// UpdateTransaction sets updates on one tracked transaction. It returns
// mongo.ErrNoDocuments when nothing matches.
func (db *Database) UpdateTransaction(ctx context.Context, txType string, txHash string, messageIndex int, updates bson.D) error {
	filter := bson.D{
		{Key: "type", Value: txType},
		{Key: "tx_hash", Value: txHash},
		{Key: "message_index", Value: messageIndex},
	}
	update := bson.D{
		{Key: "$set", Value: append(updates,
			bson.E{Key: "updated_at", Value: time.Now()},
		)},
	}

	result, err := db.collection(transactionsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update transaction %s: %w", txHash, mongo.ErrNoDocuments)
	}

	return nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
