package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lightlink-network/zk-bridge-api/database/models"
)

// CreateWithdrawalProof stores the proof of a withdrawal message. A proof is
// immutable once the batch is executed, so storing it twice is not an error.
func (db *Database) CreateWithdrawalProof(ctx context.Context, proof models.WithdrawalProof) error {
	_, err := db.collection(withdrawalProofsCollection).InsertOne(ctx, proof)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create withdrawal proof: %w", err)
	}

	return nil
}

func (db *Database) GetWithdrawalProof(ctx context.Context, txHash string, messageIndex int) (*models.WithdrawalProof, error) {
	filter := bson.D{{Key: "tx_hash", Value: txHash}, {Key: "message_index", Value: messageIndex}}

	var proof models.WithdrawalProof
	if err := db.collection(withdrawalProofsCollection).FindOne(ctx, filter).Decode(&proof); err != nil {
		return nil, fmt.Errorf("failed to get withdrawal proof: %w", err)
	}

	return &proof, nil
}
