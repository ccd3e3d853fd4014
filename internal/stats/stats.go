// Package stats computes summary numbers over the catalog for the
// stats command and the /api/stats endpoint.
package stats

import (
	"fmt"

	"github.com/tagcask/tagcask/internal/catalog"
	"github.com/tagcask/tagcask/internal/index"
)

// Stats contains summary information about the indexed files.
type Stats struct {
	TotalFiles int64             `json:"total_files"`
	TotalTags  int64             `json:"total_tags"`
	StoreBytes int64             `json:"store_bytes"`
	TopTags    []index.TagBucket `json:"top_tags"`
}

// topTagBuckets caps how many count buckets the top-tag listing keeps.
const topTagBuckets = 10

// Calculator calculates statistics from the catalog.
type Calculator struct {
	cat catalog.Catalog
}

// NewCalculator creates a new stats calculator.
func NewCalculator(cat catalog.Catalog) *Calculator {
	return &Calculator{cat: cat}
}

// Calculate computes all statistics.
func (c *Calculator) Calculate() (*Stats, error) {
	stats := &Stats{}

	var err error
	if stats.TotalFiles, err = c.cat.FileCount(); err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if stats.TotalTags, err = c.cat.TagCount(); err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	if stats.StoreBytes, err = c.cat.StoreSize(); err != nil {
		return nil, fmt.Errorf("failed to size store: %w", err)
	}

	buckets, err := c.cat.TagsStartingWith("")
	if err != nil {
		return nil, fmt.Errorf("failed to rank tags: %w", err)
	}
	// Buckets arrive count-ascending; keep the busiest few.
	if len(buckets) > topTagBuckets {
		buckets = buckets[len(buckets)-topTagBuckets:]
	}
	stats.TopTags = buckets

	return stats, nil
}

// FormatSize formats a size in bytes to a human-readable string.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
