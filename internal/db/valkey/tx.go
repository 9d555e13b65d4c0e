package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lograg/internal/db"
)

// Exec runs the queued writes inside MULTI/EXEC in one DoMulti round-trip.
// Either every write becomes visible or none does.
func (s *Store) Exec(ctx context.Context, tx *db.Tx) error {
	if tx == nil || tx.Len() == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, tx.Len()+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, op := range tx.Ops() {
		cmd, err := s.txCmd(op)
		if err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	last := len(results) - 1
	// ошибка постановки в очередь приводит к EXECABORT на EXEC
	for i := 0; i < last; i++ {
		if err := results[i].Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("queue command %d: %w", i, err)}
		}
	}

	replies, err := results[last].ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
		}
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i := range replies {
		if err := replies[i].Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}
	return nil
}

func (s *Store) txCmd(op db.TxOp) (rueidis.Completed, error) {
	switch op.Kind {
	case db.TxHSet:
		return s.hsetCmd(op.Key, op.Fields), nil
	case db.TxDel:
		return s.b().Del().Key(op.Members...).Build(), nil
	case db.TxSAdd:
		return s.b().Sadd().Key(op.Key).Member(op.Members...).Build(), nil
	case db.TxSRem:
		return s.b().Srem().Key(op.Key).Member(op.Members...).Build(), nil
	case db.TxZAdd:
		return s.b().Zadd().Key(op.Key).ScoreMember().ScoreMember(op.Score, op.Members[0]).Build(), nil
	case db.TxZRem:
		return s.b().Zrem().Key(op.Key).Member(op.Members...).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unknown tx op kind %d", op.Kind)
	}
}
