package db

// TxOpKind is a write command inside a transaction.
type TxOpKind int

// Supported transactional writes.
const (
	TxHSet TxOpKind = iota
	TxDel
	TxSAdd
	TxSRem
	TxZAdd
	TxZRem
)

// TxOp is a single queued write.
type TxOp struct {
	Kind    TxOpKind
	Key     string
	Fields  map[string]string // HSET
	Members []string          // DEL keys, SADD/SREM/ZREM members, ZADD single member
	Score   float64           // ZADD
}

// Tx collects writes that must become visible together.
// In cluster mode every key must hash to the same slot.
type Tx struct {
	ops []TxOp
}

// NewTx starts an empty transaction.
func NewTx() *Tx { return &Tx{} }

// HSet queues HSET key fields.
func (t *Tx) HSet(key string, fields map[string]string) *Tx {
	t.ops = append(t.ops, TxOp{Kind: TxHSet, Key: key, Fields: fields})
	return t
}

// Del queues DEL keys. No-op for an empty list.
func (t *Tx) Del(keys ...string) *Tx {
	if len(keys) == 0 {
		return t
	}
	t.ops = append(t.ops, TxOp{Kind: TxDel, Members: keys})
	return t
}

// SAdd queues SADD key members.
func (t *Tx) SAdd(key string, members ...string) *Tx {
	if len(members) == 0 {
		return t
	}
	t.ops = append(t.ops, TxOp{Kind: TxSAdd, Key: key, Members: members})
	return t
}

// SRem queues SREM key members.
func (t *Tx) SRem(key string, members ...string) *Tx {
	if len(members) == 0 {
		return t
	}
	t.ops = append(t.ops, TxOp{Kind: TxSRem, Key: key, Members: members})
	return t
}

// ZAdd queues ZADD key score member.
func (t *Tx) ZAdd(key string, score float64, member string) *Tx {
	t.ops = append(t.ops, TxOp{Kind: TxZAdd, Key: key, Members: []string{member}, Score: score})
	return t
}

// ZRem queues ZREM key members.
func (t *Tx) ZRem(key string, members ...string) *Tx {
	if len(members) == 0 {
		return t
	}
	t.ops = append(t.ops, TxOp{Kind: TxZRem, Key: key, Members: members})
	return t
}

// Ops returns the queued writes in order.
func (t *Tx) Ops() []TxOp { return t.ops }

// Len returns the number of queued writes.
func (t *Tx) Len() int { return len(t.ops) }
