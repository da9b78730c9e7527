// Package pathmap maps mirrored URLs to deterministic local file paths and
// provides the write-with-fallback discipline used for every file the
// mirror produces. Mapping is a pure function: the same URL and root
// always yield the same path, and every overflow case degrades to a hashed
// name instead of an error.
package pathmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Conservative margins under common OS limits (~255-260 bytes).
const (
	MaxPathLen    = 240
	MaxSegmentLen = 120
)

// Map converts an internal URL to its local file path under root.
//
// An empty or directory-style path becomes index.html, extensionless
// paths gain .html, query strings are folded into the filename as a short
// hash, and over-long segments or totals are truncated with deterministic
// hash suffixes.
func Map(u *url.URL, root string) string {
	rel := strings.TrimPrefix(u.Path, "/")
	switch {
	case rel == "":
		rel = "index.html"
	case strings.HasSuffix(rel, "/"):
		rel += "index.html"
	case path.Ext(rel) == "":
		rel += ".html"
	}

	if u.RawQuery != "" {
		dir, leaf := path.Split(rel)
		stem, ext := splitExt(leaf)
		rel = dir + stem + "-q" + shortHash(u.RawQuery, 10) + ext
	}

	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = shortenSegment(seg, MaxSegmentLen)
	}
	local := filepath.Join(root, filepath.Join(segments...))

	// If the full path is still too long, hash the leaf from the whole URL.
	if len(local) > MaxPathLen {
		stem, ext := splitExt(filepath.Base(local))
		leaf := shortenSegment(stem+"-"+shortHash(u.String(), 16)+ext, MaxSegmentLen)
		local = filepath.Join(filepath.Dir(local), leaf)
	}
	return local
}

// SafeWriteFile writes data to target, creating parent directories as
// needed. If the filesystem rejects the computed path (stricter OS limits,
// races) the leaf is replaced once with a hashed fallback. The path
// actually written is returned, since it may differ from target.
func SafeWriteFile(target string, data []byte, logger *zap.Logger) (string, error) {
	err := writeTo(target, data)
	if err == nil {
		return target, nil
	}
	logger.Warn("write failed, falling back to hashed leaf",
		zap.String("path", target),
		zap.Error(err),
	)

	stem, ext := splitExt(filepath.Base(target))
	leaf := shortenSegment(stem+"-"+shortHash(target, 16)+ext, MaxSegmentLen)
	fallback := filepath.Join(filepath.Dir(target), leaf)
	if err := writeTo(fallback, data); err != nil {
		return "", err
	}
	return fallback, nil
}

func writeTo(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// shortenSegment truncates a single path segment that exceeds limit,
// preserving the extension and appending a short hash of the original
// segment to keep the result unique.
func shortenSegment(segment string, limit int) string {
	if len(segment) <= limit {
		return segment
	}
	stem, ext := splitExt(segment)
	h := shortHash(segment, 12)
	keep := limit - len(ext) - 13
	if keep < 0 {
		keep = 0
	}
	if keep > len(stem) {
		keep = len(stem)
	}
	return stem[:keep] + "-" + h + ext
}

func splitExt(name string) (stem, ext string) {
	ext = path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func shortHash(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
