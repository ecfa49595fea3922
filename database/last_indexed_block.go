package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/zk-bridge-api/database/models"
)

// Update or create the last indexed block for ethereum or zksync
func (db *Database) UpdateLastIndexedBlock(ctx context.Context, chain string, blockNumber uint64) error {
	filter := bson.D{{Key: "chain", Value: chain}}
	update := bson.D{{
		Key: "$set",
		Value: bson.D{{
			Key: "block_number", Value: blockNumber,
		}},
	}}

	_, err := db.collection(lastIndexedBlockCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to update last indexed block: %w", err)
	}

	return nil
}

// GetLastIndexedBlock returns 0 for a chain that was never indexed.
func (db *Database) GetLastIndexedBlock(ctx context.Context, chain string) (uint64, error) {
	var result models.LastIndexedBlock
	err := db.collection(lastIndexedBlockCollection).FindOne(ctx, bson.D{{Key: "chain", Value: chain}}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get last indexed block: %w", err)
	}

	db.logger.Debug("last indexed block", "chain", chain, "blockNumber", result.BlockNumber)

	return result.BlockNumber, nil
}
