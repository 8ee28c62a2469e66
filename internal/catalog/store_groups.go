package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tunekeep/internal/dedupe"
)

// SaveDuplicateGroups replaces the persisted duplicate groups with groups.
// Members are stored in the order given so callers can persist ranked groups.
// Records whose track no longer exists are skipped; a group left with fewer
// than two members is not stored.
func (s *Store) SaveDuplicateGroups(ctx context.Context, groups []dedupe.Group) ([]int64, error) {
	var ids []int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ids = nil
		if _, err := tx.ExecContext(ctx, `DELETE FROM duplicate_groups`); err != nil {
			return fmt.Errorf("clear duplicate groups: %w", err)
		}
		now := formatTime(time.Now())
		for _, g := range groups {
			members, err := existingMembers(ctx, tx, g)
			if err != nil {
				return err
			}
			if len(members) < 2 {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO duplicate_groups (detection_method, created_at) VALUES (?, ?)`,
				string(g.Method), now)
			if err != nil {
				return fmt.Errorf("insert duplicate group: %w", err)
			}
			groupID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
			for pos, trackID := range members {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO duplicate_members (group_id, track_id, position) VALUES (?, ?, ?)`,
					groupID, trackID, pos); err != nil {
					return fmt.Errorf("insert duplicate member: %w", err)
				}
			}
			ids = append(ids, groupID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func existingMembers(ctx context.Context, tx *sql.Tx, g dedupe.Group) ([]int64, error) {
	members := make([]int64, 0, len(g.Files))
	for _, f := range g.Files {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks WHERE id = ?`, f.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check track %d: %w", f.ID, err)
		}
		if exists > 0 {
			members = append(members, f.ID)
		}
	}
	return members, nil
}

// DuplicateGroups returns the persisted groups with their current tracks.
// Groups that have shrunk below two members (because tracks were removed)
// are omitted.
func (s *Store) DuplicateGroups(ctx context.Context) ([]StoredGroup, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, detection_method, created_at FROM duplicate_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list duplicate groups: %w", err)
	}
	var groups []StoredGroup
	for rows.Next() {
		var (
			g          StoredGroup
			createdRaw string
		)
		if err := rows.Scan(&g.ID, &g.Method, &createdRaw); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			g.CreatedAt = created
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := groups[:0]
	for _, g := range groups {
		memberRows, err := s.db.QueryContext(ctx,
			`SELECT `+prefixedTrackColumns("t")+` FROM duplicate_members m
             JOIN tracks t ON t.id = m.track_id
             WHERE m.group_id = ? ORDER BY m.position`, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list duplicate members: %w", err)
		}
		tracks, err := scanTracks(memberRows)
		if err != nil {
			return nil, fmt.Errorf("scan duplicate members: %w", err)
		}
		if len(tracks) < 2 {
			continue
		}
		g.Tracks = tracks
		out = append(out, g)
	}
	return out, nil
}

// ClearDuplicateGroups deletes every persisted duplicate group.
func (s *Store) ClearDuplicateGroups(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM duplicate_groups`)
	if err != nil {
		return 0, fmt.Errorf("clear duplicate groups: %w", err)
	}
	return res.RowsAffected()
}

func prefixedTrackColumns(alias string) string {
	return alias + "." + strings.ReplaceAll(trackColumns, ", ", ", "+alias+".")
}
