package storage

import (
	"context"
	"database/sql"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
	"github.com/ozekimasaki/lazyload/internal/types"
)

// ChainStats summarizes one chain for getAllChainStats, per spec.md §4.7's
// diagnostic surface for the Markov subsystem.
type ChainStats struct {
	ChainType  types.ChainType
	StateCount int
	EdgeCount  int
}

// getChainID resolves a chain_type to its surrogate row ID. seedChains
// guarantees all four chains exist from Open onward, so a missing row is
// treated as a storage defect rather than a not-found case.
func (s *Store) getChainID(ctx context.Context, db *sql.DB, chainType types.ChainType) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM markov_chains WHERE chain_type = ?`, string(chainType)).Scan(&id)
	if err != nil {
		return 0, lzerrors.NewStorageError("get_chain_id", err)
	}
	return id, nil
}

// GetTransitions returns every weighted out-edge of chainType from
// fromState, ordered by descending probability — the shape the Markov
// query engine's bounded random walk consumes one hop at a time.
func (s *Store) GetTransitions(ctx context.Context, chainType types.ChainType, fromState string) ([]types.MarkovTransition, error) {
	chainID, err := s.getChainID(ctx, s.readDB, chainType)
	if err != nil {
		return nil, err
	}
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT from_state, to_state, raw_count, probability
		FROM markov_transitions WHERE chain_id = ? AND from_state = ?
		ORDER BY probability DESC
	`, chainID, fromState)
	if err != nil {
		return nil, lzerrors.NewStorageError("get_transitions", err)
	}
	defer rows.Close()

	var out []types.MarkovTransition
	for rows.Next() {
		t := types.MarkovTransition{ChainID: chainType}
		if err := rows.Scan(&t.FromState, &t.ToState, &t.RawCount, &t.Probability); err != nil {
			return nil, lzerrors.NewStorageError("get_transitions", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// HasChainSupport reports whether state appears in chainType at all, as the
// source or the target of a transition, distinguishing "state is unseen"
// from "state is seen but a dead end" for the query engine's cross-chain
// fallback decision.
func (s *Store) HasChainSupport(ctx context.Context, chainType types.ChainType, state string) (bool, error) {
	chainID, err := s.getChainID(ctx, s.readDB, chainType)
	if err != nil {
		return false, err
	}
	var n int
	err = s.readDB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM markov_states WHERE chain_id = ? AND state = ?
	`, chainID, state).Scan(&n)
	if err != nil {
		return false, lzerrors.NewStorageError("has_chain_support", err)
	}
	return n > 0, nil
}

// GetAllChainStats reports a state/edge count per chain, for the
// architecture-overview tool's corpus-health summary.
func (s *Store) GetAllChainStats(ctx context.Context) (map[types.ChainType]ChainStats, error) {
	out := make(map[types.ChainType]ChainStats, len(types.AllChainTypes))
	for _, ct := range types.AllChainTypes {
		chainID, err := s.getChainID(ctx, s.readDB, ct)
		if err != nil {
			return nil, err
		}
		stats := ChainStats{ChainType: ct}
		if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM markov_states WHERE chain_id = ?`, chainID).Scan(&stats.StateCount); err != nil {
			return nil, lzerrors.NewStorageError("get_all_chain_stats", err)
		}
		if err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM markov_transitions WHERE chain_id = ?`, chainID).Scan(&stats.EdgeCount); err != nil {
			return nil, lzerrors.NewStorageError("get_all_chain_stats", err)
		}
		out[ct] = stats
	}
	return out, nil
}

// ReplaceChain atomically swaps every state and transition of chainType for
// the freshly rebuilt set the caller computed (internal/markov normalizes
// transitions to sum to 1 per fromState before calling this). Replacing
// wholesale rather than diffing mirrors how a full re-index already
// recomputes every other derived table from scratch.
func (s *Store) ReplaceChain(ctx context.Context, chainType types.ChainType, transitions []types.MarkovTransition) error {
	chainID, err := s.getChainID(ctx, s.writeDB, chainType)
	if err != nil {
		return err
	}

	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return lzerrors.NewStorageError("replace_chain", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM markov_transitions WHERE chain_id = ?`, chainID); err != nil {
		return lzerrors.NewStorageError("replace_chain", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM markov_states WHERE chain_id = ?`, chainID); err != nil {
		return lzerrors.NewStorageError("replace_chain", err)
	}

	seen := make(map[string]bool)
	for _, t := range transitions {
		if !seen[t.FromState] {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO markov_states (chain_id, state) VALUES (?, ?)`, chainID, t.FromState); err != nil {
				return lzerrors.NewStorageError("replace_chain", err)
			}
			seen[t.FromState] = true
		}
		if !seen[t.ToState] {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO markov_states (chain_id, state) VALUES (?, ?)`, chainID, t.ToState); err != nil {
				return lzerrors.NewStorageError("replace_chain", err)
			}
			seen[t.ToState] = true
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markov_transitions (chain_id, from_state, to_state, raw_count, probability)
			VALUES (?, ?, ?, ?, ?)
		`, chainID, t.FromState, t.ToState, t.RawCount, t.Probability); err != nil {
			return lzerrors.NewStorageError("replace_chain", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return lzerrors.NewStorageError("replace_chain", err)
	}
	return nil
}
