package store

import (
	"context"
	"fmt"

	"github.com/roach88/memento/internal/model"
)

// unseenVideosSQL selects videos never presented to the user bound to
// the single placeholder.
const unseenVideosSQL = `
	SELECT id, uri, labels FROM videos
	WHERE id NOT IN (
		SELECT p.id_video
		FROM levels l JOIN presentations p ON l.id = p.id_level
		WHERE l.id_user = ?
	)`

// SeedVideos inserts uris into the catalogue, skipping ones already
// present. Returns the number of new rows.
func (q *Queries) SeedVideos(ctx context.Context, uris []string) (int64, error) {
	stmt, err := q.q.PrepareContext(ctx, `INSERT INTO videos (uri) VALUES (?) ON CONFLICT(uri) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("seed videos: prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, uri := range uris {
		res, err := stmt.ExecContext(ctx, uri)
		if err != nil {
			return 0, fmt.Errorf("seed videos: insert %q: %w", uri, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("seed videos: rows affected: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

// UnseenByPriority returns up to n videos never presented to the user,
// lowest label count first. Ties break by id so selection is stable.
func (q *Queries) UnseenByPriority(ctx context.Context, userID int64, n int) ([]model.Video, error) {
	return q.queryVideos(ctx, unseenVideosSQL+` ORDER BY labels ASC, id ASC LIMIT ?`, userID, n)
}

// UnseenRandom returns up to n videos never presented to the user, drawn
// uniformly at random.
func (q *Queries) UnseenRandom(ctx context.Context, userID int64, n int) ([]model.Video, error) {
	return q.queryVideos(ctx, unseenVideosSQL+` ORDER BY RANDOM() LIMIT ?`, userID, n)
}

// Videos returns the whole catalogue ordered by id.
func (q *Queries) Videos(ctx context.Context) ([]model.Video, error) {
	return q.queryVideos(ctx, `SELECT id, uri, labels FROM videos ORDER BY id ASC`)
}

// CountVideos returns the catalogue size.
func (q *Queries) CountVideos(ctx context.Context) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

// IncrementLabels adds one to the label counter of each id. An id listed
// twice is incremented twice.
func (q *Queries) IncrementLabels(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, err := q.q.PrepareContext(ctx, `UPDATE videos SET labels = labels + 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("increment labels: prepare: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("increment labels: video %d: %w", id, err)
		}
	}
	return nil
}

// RecomputeLabelCounts resets every video's label counter to the number of
// target repeats in levels that still count: scored levels, and pending
// levels created after cutoffMillis. Returns how many counters changed.
func (q *Queries) RecomputeLabelCounts(ctx context.Context, cutoffMillis int64) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		WITH real AS (
			SELECT v.id AS id_video, COUNT(t.id_video) AS real_labels
			FROM videos v
			LEFT JOIN (
				SELECT p.id_video
				FROM levels l JOIN presentations p ON l.id = p.id_level
				WHERE (l.score IS NOT NULL OR l.created_at > ?)
				  AND p.targeted = 1 AND p.duplicate = 1
			) t ON v.id = t.id_video
			GROUP BY v.id
		)
		UPDATE videos SET labels = real.real_labels
		FROM real
		WHERE videos.id = real.id_video AND videos.labels <> real.real_labels
	`, cutoffMillis)
	if err != nil {
		return 0, fmt.Errorf("recompute label counts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recompute label counts: rows affected: %w", err)
	}
	return n, nil
}

func (q *Queries) queryVideos(ctx context.Context, query string, args ...any) ([]model.Video, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.URI, &v.LabelCount); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}
