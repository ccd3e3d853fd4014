package index

import (
	"database/sql"
	"fmt"
	"sort"
)

// TagInfo holds a tag name and its usage counter. The counter is a
// cached aggregate: it is bumped independently of membership writes
// and may disagree with the true membership size until a sync.
type TagInfo struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TagBucket groups the tags sharing one usage count, in discovery
// order. Used for autocomplete ranking.
type TagBucket struct {
	Count int64    `json:"count"`
	Tags  []string `json:"tags"`
}

// AddTag ensures a counter row exists for the tag, created at zero.
// An existing row is left untouched.
func (db *DB) AddTag(tag string) error {
	_, err := db.conn.Exec(
		`INSERT INTO tag_stats (tag_name, upload_count) VALUES (?, 0) ON CONFLICT DO NOTHING`,
		tag,
	)
	if err != nil {
		return fmt.Errorf("failed to add tag %s: %w", tag, err)
	}
	return nil
}

// RemoveTag drops the counter row for a tag.
func (db *DB) RemoveTag(tag string) error {
	if _, err := db.conn.Exec(`DELETE FROM tag_stats WHERE tag_name = ?`, tag); err != nil {
		return fmt.Errorf("failed to remove tag %s: %w", tag, err)
	}
	return nil
}

// TagCount returns the cached usage counter for a tag. Returns
// ErrUnknownTag when the tag has no counter row.
func (db *DB) TagCount(tag string) (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT upload_count FROM tag_stats WHERE tag_name = ?`, tag).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("tag %s: %w", tag, ErrUnknownTag)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query count for tag %s: %w", tag, err)
	}
	return count, nil
}

// TagInfoByName returns the tag's counter row as a TagInfo.
func (db *DB) TagInfoByName(tag string) (*TagInfo, error) {
	count, err := db.TagCount(tag)
	if err != nil {
		return nil, err
	}
	return &TagInfo{Name: tag, Count: count}, nil
}

// SetTagCount overwrites the counter for a tag. A missing row is a
// silent no-op. Prefer IncTagCount/DecTagCount: setting the counter
// directly desynchronizes it from add/remove events.
func (db *DB) SetTagCount(tag string, count int64) error {
	if _, err := db.conn.Exec(`UPDATE tag_stats SET upload_count = ? WHERE tag_name = ?`, count, tag); err != nil {
		return fmt.Errorf("failed to set count for tag %s: %w", tag, err)
	}
	return nil
}

// IncTagCount bumps the tag's counter by one. Used on upload.
func (db *DB) IncTagCount(tag string) error {
	count, err := db.TagCount(tag)
	if err != nil {
		return err
	}
	return db.SetTagCount(tag, count+1)
}

// DecTagCount lowers the tag's counter by one. Once the counter
// reaches zero the row is dropped entirely: a tag carried by no file
// has no counter.
func (db *DB) DecTagCount(tag string) error {
	count, err := db.TagCount(tag)
	if err != nil {
		return err
	}
	count--
	if count < 1 {
		return db.RemoveTag(tag)
	}
	return db.SetTagCount(tag, count)
}

// SyncTagCount recomputes the counter from the membership relation
// and stores it. This is an O(membership) repair operation invoked on
// demand, never after every mutation. Returns the recomputed count.
func (db *DB) SyncTagCount(tag string) (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM tag_files WHERE tag_name = ?`, tag).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count membership for tag %s: %w", tag, err)
	}

	if err := db.SetTagCount(tag, count); err != nil {
		return 0, err
	}
	return count, nil
}

// TagsStartingWith returns tags whose name starts with prefix,
// bucketed by usage count in ascending count order. Tags sharing a
// count land in the same bucket in the order they were discovered.
func (db *DB) TagsStartingWith(prefix string) ([]TagBucket, error) {
	rows, err := db.conn.Query(
		`SELECT tag_name, upload_count FROM tag_stats WHERE tag_name LIKE ? || '%'`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags with prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	byCount := make(map[int64][]string)
	var counts []int64
	for rows.Next() {
		var info TagInfo
		if err := rows.Scan(&info.Name, &info.Count); err != nil {
			return nil, err
		}
		if _, seen := byCount[info.Count]; !seen {
			counts = append(counts, info.Count)
		}
		byCount[info.Count] = append(byCount[info.Count], info.Name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })

	buckets := make([]TagBucket, 0, len(counts))
	for _, count := range counts {
		buckets = append(buckets, TagBucket{Count: count, Tags: byCount[count]})
	}
	return buckets, nil
}

// TagStatsCount returns the number of counter rows, i.e. the number
// of tags currently carried by at least one file.
func (db *DB) TagStatsCount() (int64, error) {
	var count int64
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM tag_stats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return count, nil
}
