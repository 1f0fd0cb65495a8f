package sarif

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
)

// unclassifiedRuleID is used for problems reported without an id.
const unclassifiedRuleID = "unclassified"

// toSarifLevel maps an analyzer severity onto a SARIF result level.
func toSarifLevel(severity findings.Severity) string {
	switch severity {
	case findings.SeverityError:
		return "error"
	case findings.SeverityWarning, findings.SeverityPerformance, findings.SeverityPortability:
		return "warning"
	case findings.SeverityStyle, findings.SeverityInformation, findings.SeverityNote:
		return "note"
	default:
		return "none"
	}
}

// PathWithin checks if a path is within another path (root).
// Returns true if path is within root, or if root is empty.
func PathWithin(path, root string) bool {
	if root == "" {
		return true
	}
	cleanPath, err1 := filepath.Abs(path)
	cleanRoot, err2 := filepath.Abs(root)
	if err1 != nil || err2 != nil {
		cleanPath = filepath.Clean(path)
		cleanRoot = filepath.Clean(root)
	}
	if cleanPath == cleanRoot {
		return true
	}
	rootWithSep := cleanRoot + string(filepath.Separator)
	return strings.HasPrefix(cleanPath, rootWithSep)
}

// artifactURI returns path relative to sourceFolder with forward slashes when
// it lies inside it, and the cleaned path otherwise.
func artifactURI(path, sourceFolder string) string {
	if sourceFolder != "" && filepath.IsAbs(path) && PathWithin(path, sourceFolder) {
		if rel, err := filepath.Rel(sourceFolder, path); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// fingerprint identifies a problem independently of its message wording.
func fingerprint(p findings.Problem, uri string) string {
	return calculateMD5Hash(fmt.Sprintf("%s|%s|%d", p.ID, uri, p.Line))
}

// function that calculates md5 hash for a given text
func calculateMD5Hash(text string) string {
	hash := md5.New()
	io.WriteString(hash, text)
	return hex.EncodeToString(hash.Sum(nil))
}
