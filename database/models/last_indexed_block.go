package models

const (
	ChainEthereum = "ethereum"
	ChainZkSync   = "zksync"
)

// LastIndexedBlock is the last block scanned on a chain, so a restarted
// indexer resumes where it stopped.
type LastIndexedBlock struct {
	Chain       string `json:"chain" bson:"chain"`
	BlockNumber uint64 `json:"block_number" bson:"block_number"`
}
