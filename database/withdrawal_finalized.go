package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/zk-bridge-api/database/models"
)

// CreateWithdrawalFinalized records the finalization of a withdrawal,
// replacing an earlier record of the same message.
func (db *Database) CreateWithdrawalFinalized(ctx context.Context, finalized models.WithdrawalFinalized) error {
	filter := bson.D{{Key: "tx_hash", Value: finalized.TxHash}, {Key: "message_index", Value: finalized.MessageIndex}}

	_, err := db.collection(withdrawalsFinalizedCollection).ReplaceOne(ctx, filter, finalized, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to create withdrawal finalized: %w", err)
	}

	return nil
}

func (db *Database) GetWithdrawalFinalized(ctx context.Context, txHash string, messageIndex int) (*models.WithdrawalFinalized, error) {
	filter := bson.D{{Key: "tx_hash", Value: txHash}, {Key: "message_index", Value: messageIndex}}

	var finalized models.WithdrawalFinalized
	if err := db.collection(withdrawalsFinalizedCollection).FindOne(ctx, filter).Decode(&finalized); err != nil {
		return nil, fmt.Errorf("failed to get withdrawal finalized: %w", err)
	}

	return &finalized, nil
}
