// Package dirhash computes content hashes of docker build contexts so an
// image can be tagged by the source it was built from.
package dirhash

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"go.uber.org/zap"
)

// DefaultLength is the number of hex characters kept from the digest.
const DefaultLength = 12

// BuildContext describes the directory sent to docker build.
type BuildContext struct {
	// Dir is the root of the build context.
	Dir string
	// IgnoreFile is relative to Dir. Defaults to ".dockerignore".
	IgnoreFile string
	// Dockerfile is relative to Dir and always hashed, even when ignored.
	Dockerfile string
}

func (bc BuildContext) ignoreFile() string {
	if bc.IgnoreFile == "" {
		return ".dockerignore"
	}
	return bc.IgnoreFile
}

// Hasher hashes build contexts.
type Hasher struct {
	logs   *zap.Logger
	length int
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithLength sets the hash output length, 0 keeps the full digest.
func WithLength(n int) Option {
	return func(h *Hasher) { h.length = n }
}

// New creates a Hasher that logs visited paths at debug level.
func New(logs *zap.Logger, opts ...Option) *Hasher {
	h := &Hasher{logs: logs, length: DefaultLength}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the content hash of every file docker would send for bc.
func (h *Hasher) Hash(bc BuildContext) (string, error) {
	files, err := h.Files(bc)
	if err != nil {
		return "", err
	}

	sum := sha256.New()
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(bc.Dir, filepath.FromSlash(rel)))
		if err != nil {
			return "", errors.Wrapf(err, "read %s", rel)
		}

		sum.Write([]byte(rel))
		sum.Write([]byte{0})
		sum.Write(content)
	}

	digest := hex.EncodeToString(sum.Sum(nil))
	if h.length > 0 && len(digest) > h.length {
		return digest[:h.length], nil
	}
	return digest, nil
}

// Files lists the slash-separated relative paths of the build context in
// lexical order.
func (h *Hasher) Files(bc BuildContext) ([]string, error) {
	pm, err := loadPatterns(bc)
	if err != nil {
		return nil, err
	}

	always := map[string]bool{bc.ignoreFile(): true}
	if bc.Dockerfile != "" {
		always[filepath.ToSlash(bc.Dockerfile)] = true
	}

	parents := map[string]patternmatcher.MatchInfo{}
	var files []string

	err = filepath.WalkDir(bc.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(bc.Dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if always[rel] && !d.IsDir() {
			h.logs.Debug("include", zap.String("path", rel), zap.String("reason", "always"))
			files = append(files, rel)
			return nil
		}

		parent := filepath.ToSlash(filepath.Dir(rel))
		if parent == "." {
			parent = ""
		}

		matched, info, err := pm.MatchesUsingParentResults(rel, parents[parent])
		if err != nil {
			return errors.Wrapf(err, "match %s", rel)
		}

		switch {
		case d.IsDir():
			parents[rel] = info
			if matched && !pm.Exclusions() && !holdsAny(rel, always) {
				h.logs.Debug("skip dir", zap.String("path", rel))
				return filepath.SkipDir
			}
		case matched:
			h.logs.Debug("skip", zap.String("path", rel))
		default:
			h.logs.Debug("include", zap.String("path", rel))
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", bc.Dir)
	}

	slices.Sort(files)
	return files, nil
}

// holdsAny reports whether one of paths lies below dir.
func holdsAny(dir string, paths map[string]bool) bool {
	for p := range paths {
		if strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

func loadPatterns(bc BuildContext) (*patternmatcher.PatternMatcher, error) {
	var patterns []string

	f, err := os.Open(filepath.Join(bc.Dir, bc.ignoreFile()))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrapf(err, "open %s", bc.ignoreFile())
	default:
		defer f.Close()
		if patterns, err = ignorefile.ReadAll(f); err != nil {
			return nil, errors.Wrapf(err, "parse %s", bc.ignoreFile())
		}
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrapf(err, "compile patterns from %s", bc.ignoreFile())
	}
	return pm, nil
}
