package models

// WithdrawalProof is the inclusion proof of a withdrawal message. It is stored
// in a separate collection so the API can serve it to whoever finalizes.
type WithdrawalProof struct {
	TxHash            string   `json:"tx_hash" bson:"tx_hash"`
	MessageIndex      int      `json:"message_index" bson:"message_index"`
	L2BatchNumber     string   `json:"l2_batch_number" bson:"l2_batch_number"`
	L2MessageIndex    string   `json:"l2_message_index" bson:"l2_message_index"`
	L2TxNumberInBatch uint16   `json:"l2_tx_number_in_batch" bson:"l2_tx_number_in_batch"`
	Message           string   `json:"message" bson:"message"`
	Sender            string   `json:"sender" bson:"sender"`
	Proof             []string `json:"proof" bson:"proof"`
}
