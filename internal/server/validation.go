package server

import (
	"fmt"
	"regexp"
	"strings"
)

var hashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidateHash checks that a path parameter looks like a full
// lowercase hex content digest.
func ValidateHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("hash cannot be empty")
	}
	if !hashRe.MatchString(hash) {
		return fmt.Errorf("hash must be 64 lowercase hex characters")
	}
	return nil
}

// ValidateUploadName validates an uploaded filename to prevent path
// traversal into the spool directory.
func ValidateUploadName(name string) error {
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("path traversal detected")
	}

	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("invalid characters in filename")
	}

	return nil
}
