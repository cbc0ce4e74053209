package storage

// Position identifies a log in the global event order.
type Position struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
}

// Before reports whether p sorts strictly before other.
func (p Position) Before(other Position) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber < other.BlockNumber
	}
	return p.LogIndex < other.LogIndex
}
