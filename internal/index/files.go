package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// File is the metadata record binding a content hash to its display
// name, stored path, tag set and optional notes and transcript.
type File struct {
	Hash       string          `json:"hash"`
	Name       string          `json:"name"`
	Path       string          `json:"path"`
	Tags       map[string]bool `json:"-"`
	Notes      string          `json:"notes,omitempty"`
	Transcript string          `json:"transcript,omitempty"`
	UploadedAt time.Time       `json:"uploaded_at"`
}

// TagList returns the file's tags as a sorted slice.
func (f *File) TagList() []string {
	tags := make([]string, 0, len(f.Tags))
	for tag := range f.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// serializeTags encodes a tag set as a sorted JSON array for the
// files row. Sorting keeps the column byte-stable for identical sets.
func serializeTags(tags map[string]bool) (string, error) {
	list := make([]string, 0, len(tags))
	for tag := range tags {
		list = append(list, tag)
	}
	sort.Strings(list)
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to serialize tags: %w", err)
	}
	return string(data), nil
}

func deserializeTags(data string) (map[string]bool, error) {
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to deserialize tags: %w", err)
	}
	tags := make(map[string]bool, len(list))
	for _, tag := range list {
		tags[tag] = true
	}
	return tags, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// AddFile inserts the metadata row for a new file. It fails if a row
// for the hash already exists; callers check existence first.
func (db *DB) AddFile(file *File) error {
	tagsJSON, err := serializeTags(file.Tags)
	if err != nil {
		return err
	}

	uploadedAt := file.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
		file.UploadedAt = uploadedAt
	}

	query := `
		INSERT INTO files (hash, name, path, uploaded_at, tags, notes, transcript)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.conn.Exec(
		query,
		file.Hash,
		file.Name,
		file.Path,
		uploadedAt.Unix(),
		tagsJSON,
		nullable(file.Notes),
		nullable(file.Transcript),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", file.Hash, err)
	}
	return nil
}

// FileByHash retrieves the metadata record for a content hash.
// Returns ErrNotFound when no row exists.
func (db *DB) FileByHash(hash string) (*File, error) {
	query := `
		SELECT hash, name, path, uploaded_at, tags, notes, transcript
		FROM files
		WHERE hash = ?
	`

	file := &File{}
	var uploadedAt int64
	var tagsJSON string
	var notes, transcript sql.NullString

	err := db.conn.QueryRow(query, hash).Scan(
		&file.Hash,
		&file.Name,
		&file.Path,
		&uploadedAt,
		&tagsJSON,
		&notes,
		&transcript,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file %s: %w", hash, err)
	}

	file.UploadedAt = time.Unix(uploadedAt, 0)
	file.Tags, err = deserializeTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		file.Notes = notes.String
	}
	if transcript.Valid {
		file.Transcript = transcript.String
	}

	return file, nil
}

// RemoveFile deletes the metadata row for a hash and removes the hash
// from the membership relation for every tag the row currently
// carries. The tag set is read from the row itself, not from the
// caller, so the deletion follows what the index actually holds.
func (db *DB) RemoveFile(hash string) error {
	file, err := db.FileByHash(hash)
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", hash, err)
	}

	for tag := range file.Tags {
		if _, err := tx.Exec(`DELETE FROM tag_files WHERE tag_name = ? AND file_hash = ?`, tag, hash); err != nil {
			return fmt.Errorf("failed to remove hash %s from tag %s: %w", hash, tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file removal: %w", err)
	}
	return nil
}

// UpdateTags rewrites the file's tag set, notes and transcript. The
// hash is first removed from the membership rows of the declared tags
// (self-healing against drift from earlier partial writes), missing
// tags are registered, membership rows are re-inserted, and finally
// the metadata row is rewritten.
func (db *DB) UpdateTags(file *File) error {
	tagsJSON, err := serializeTags(file.Tags)
	if err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for tag := range file.Tags {
		if _, err := tx.Exec(`DELETE FROM tag_files WHERE tag_name = ? AND file_hash = ?`, tag, file.Hash); err != nil {
			return fmt.Errorf("failed to clear membership of %s in tag %s: %w", file.Hash, tag, err)
		}
	}

	for tag := range file.Tags {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO tag_registry (tag_name) VALUES (?)`, tag); err != nil {
			return fmt.Errorf("failed to register tag %s: %w", tag, err)
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO tag_files (tag_name, file_hash) VALUES (?, ?)`, tag, file.Hash); err != nil {
			return fmt.Errorf("failed to add hash %s to tag %s: %w", file.Hash, tag, err)
		}
	}

	query := `UPDATE files SET tags = ?, notes = ?, transcript = ? WHERE hash = ?`
	if _, err := tx.Exec(query, tagsJSON, nullable(file.Notes), nullable(file.Transcript), file.Hash); err != nil {
		return fmt.Errorf("failed to update tags for file %s: %w", file.Hash, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag update: %w", err)
	}
	return nil
}

// HashesForTag returns every hash currently carrying the tag. A tag
// that was never used yields ErrUnknownTag; a known tag with zero
// current members yields an empty set.
func (db *DB) HashesForTag(tag string) (map[string]bool, error) {
	var known int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM tag_registry WHERE tag_name = ?`, tag).Scan(&known)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag registry for %s: %w", tag, err)
	}
	if known == 0 {
		return nil, fmt.Errorf("tag %s: %w", tag, ErrUnknownTag)
	}

	rows, err := db.conn.Query(`SELECT file_hash FROM tag_files WHERE tag_name = ?`, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to query hashes for tag %s: %w", tag, err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes[hash] = true
	}
	return hashes, rows.Err()
}

// AllHashes returns the hash of every file in the index.
func (db *DB) AllHashes() (map[string]bool, error) {
	rows, err := db.conn.Query(`SELECT hash FROM files`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes[hash] = true
	}
	return hashes, rows.Err()
}

// FileCount returns the number of metadata rows.
func (db *DB) FileCount() (int64, error) {
	var count int64
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}
