package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/memento/internal/model"
)

// NewLevel carries the columns written when a level is allocated.
type NewLevel struct {
	UserID        int64
	AssignmentRef *string
	HitRef        *string
	InputsHash    string
	Env           model.ClientEnv
}

// InsertLevel creates a pending level stamped with the store clock and
// returns its id.
func (q *Queries) InsertLevel(ctx context.Context, l NewLevel) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO levels
		(id_user, assignment_id, hit_id, created_at, inputs_hash, os, browser, browser_version, device_type)
		VALUES (?, ?, ?, `+nowMillisSQL+`, ?, ?, ?, ?, ?)
	`,
		l.UserID,
		nullString(l.AssignmentRef),
		nullString(l.HitRef),
		l.InputsHash,
		nullEmpty(l.Env.OS),
		nullEmpty(l.Env.Browser),
		nullEmpty(l.Env.BrowserVersion),
		nullEmpty(l.Env.DeviceType),
	)
	if err != nil {
		return 0, fmt.Errorf("insert level: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert level: last insert id: %w", err)
	}
	return id, nil
}

// InsertPresentations writes the presentations of one level. Only the
// allocation-time columns are written; response columns stay NULL.
func (q *Queries) InsertPresentations(ctx context.Context, levelID int64, ps []model.Presentation) error {
	stmt, err := q.q.PrepareContext(ctx, `
		INSERT INTO presentations
		(id_level, id_video, position, vigilance, duplicate, targeted)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert presentations: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range ps {
		if _, err := stmt.ExecContext(ctx, levelID, p.VideoID, p.Position, p.Vigilance, p.Duplicate, p.Targeted); err != nil {
			return fmt.Errorf("insert presentations: position %d: %w", p.Position, err)
		}
	}
	return nil
}

// Level retrieves a level by id. Returns ErrNotFound if absent.
func (q *Queries) Level(ctx context.Context, id int64) (model.Level, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, id_user, assignment_id, hit_id, created_at, inputs_hash,
		       score, vig_score, false_pos_rate, reward, duration_msec, feedback,
		       os, browser, browser_version, device_type
		FROM levels WHERE id = ?
	`, id)

	var (
		l                                    model.Level
		assignment, hit, feedback            sql.NullString
		osName, browser, version, deviceType sql.NullString
		score, vig, fpr, reward              sql.NullFloat64
		duration                             sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.UserID, &assignment, &hit, &l.CreatedAtMillis, &l.InputsHash,
		&score, &vig, &fpr, &reward, &duration, &feedback,
		&osName, &browser, &version, &deviceType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Level{}, ErrNotFound
		}
		return model.Level{}, fmt.Errorf("read level: %w", err)
	}

	l.AssignmentRef = stringPtr(assignment)
	l.HitRef = stringPtr(hit)
	l.Score = floatPtr(score)
	l.VigilanceScore = floatPtr(vig)
	l.FalsePositiveRate = floatPtr(fpr)
	l.Reward = floatPtr(reward)
	l.DurationMsec = int64Ptr(duration)
	l.Feedback = stringPtr(feedback)
	l.Env = model.ClientEnv{
		OS:             osName.String,
		Browser:        browser.String,
		BrowserVersion: version.String,
		DeviceType:     deviceType.String,
	}
	return l, nil
}

// HasResponses reports whether any presentation of the level already
// carries a response.
func (q *Queries) HasResponses(ctx context.Context, levelID int64) (bool, error) {
	var exists bool
	err := q.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM presentations WHERE id_level = ? AND response IS NOT NULL)
	`, levelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check responses: %w", err)
	}
	return exists, nil
}

// CountPresentations returns the number of presentations in a level.
func (q *Queries) CountPresentations(ctx context.Context, levelID int64) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM presentations WHERE id_level = ?`, levelID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count presentations: %w", err)
	}
	return n, nil
}

// SaveResponses stores responses[i] on the presentation at position i.
func (q *Queries) SaveResponses(ctx context.Context, levelID int64, responses []model.Response) error {
	stmt, err := q.q.PrepareContext(ctx, `
		UPDATE presentations
		SET response = ?, start_msec = ?, duration_msec = ?, media_error_code = ?
		WHERE id_level = ? AND position = ?
	`)
	if err != nil {
		return fmt.Errorf("save responses: prepare: %w", err)
	}
	defer stmt.Close()

	for pos, r := range responses {
		_, err := stmt.ExecContext(ctx,
			nullBool(r.Response),
			nullFloat(r.StartMsec),
			nullFloat(r.DurationMsec),
			nullInt(r.MediaErrorCode),
			levelID,
			pos,
		)
		if err != nil {
			return fmt.Errorf("save responses: position %d: %w", pos, err)
		}
	}
	return nil
}

// Presentations returns a level's presentations ordered by position.
func (q *Queries) Presentations(ctx context.Context, levelID int64) ([]model.Presentation, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id_level, id_video, position, vigilance, duplicate, targeted,
		       response, start_msec, duration_msec, media_error_code
		FROM presentations
		WHERE id_level = ?
		ORDER BY position ASC
	`, levelID)
	if err != nil {
		return nil, fmt.Errorf("query presentations: %w", err)
	}
	defer rows.Close()

	ps := []model.Presentation{}
	for rows.Next() {
		var (
			p            model.Presentation
			response     sql.NullBool
			start, dur   sql.NullFloat64
			mediaErrCode sql.NullInt64
		)
		err := rows.Scan(&p.LevelID, &p.VideoID, &p.Position, &p.Vigilance, &p.Duplicate, &p.Targeted,
			&response, &start, &dur, &mediaErrCode)
		if err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		p.Response = boolPtr(response)
		p.StartMsec = floatPtr(start)
		p.DurationMsec = floatPtr(dur)
		p.MediaErrorCode = intPtr(mediaErrCode)
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presentations: %w", err)
	}
	return ps, nil
}

// MarkScored records a level's scores and reward and assigns its scoring
// sequence number. Returns false without error if the level was already
// scored; the existing scores are left untouched.
func (q *Queries) MarkScored(ctx context.Context, levelID int64, s model.Scores, reward float64) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE levels
		SET score = ?, vig_score = ?, false_pos_rate = ?, reward = ?,
		    scored_seq = (SELECT COALESCE(MAX(scored_seq), 0) + 1 FROM levels)
		WHERE id = ? AND score IS NULL
	`, s.OverallScore, s.VigilanceScore, s.FalsePositiveRate, reward, levelID)
	if err != nil {
		return false, fmt.Errorf("mark scored: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark scored: rows affected: %w", err)
	}
	return n == 1, nil
}

// CountScoredLevels returns how many of the user's levels are scored.
func (q *Queries) CountScoredLevels(ctx context.Context, userID int64) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM levels WHERE id_user = ? AND score IS NOT NULL
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count scored levels: %w", err)
	}
	return n, nil
}

// CountLevels returns how many levels, pending or scored, the user has.
func (q *Queries) CountLevels(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM levels WHERE id_user = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count levels: %w", err)
	}
	return n, nil
}

// CompletedLevels returns the user's scored levels in scoring order.
func (q *Queries) CompletedLevels(ctx context.Context, userID int64) ([]model.CompletedLevel, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT score, COALESCE(reward, 0) FROM levels
		WHERE id_user = ? AND score IS NOT NULL
		ORDER BY scored_seq ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query completed levels: %w", err)
	}
	defer rows.Close()

	levels := []model.CompletedLevel{}
	for rows.Next() {
		var c model.CompletedLevel
		if err := rows.Scan(&c.Score, &c.Reward); err != nil {
			return nil, fmt.Errorf("scan completed level: %w", err)
		}
		levels = append(levels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed levels: %w", err)
	}
	return levels, nil
}

// PresentedVideoIDs returns every video id ever presented to the user,
// with repeats, ordered by level then position.
func (q *Queries) PresentedVideoIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT p.id_video
		FROM levels l JOIN presentations p ON l.id = p.id_level
		WHERE l.id_user = ?
		ORDER BY l.id ASC, p.position ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query presented videos: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan presented video: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presented videos: %w", err)
	}
	return ids, nil
}

// SubmitLevel records total task time and free-text feedback. Returns
// false if the level does not exist.
func (q *Queries) SubmitLevel(ctx context.Context, levelID, durationMsec int64, feedback string) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE levels SET duration_msec = ?, feedback = ? WHERE id = ?
	`, durationMsec, nullEmpty(feedback), levelID)
	if err != nil {
		return false, fmt.Errorf("submit level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("submit level: rows affected: %w", err)
	}
	return n == 1, nil
}
