package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

// GetArtifactName build returns artifact name.
// Example: analyse_cppcheck_2025-09-15T08-28-46Z.addin-artifact.
func GetArtifactName(command, analyzer string, t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s_%s_%s.addin-artifact", command, analyzer, ts)
}

// SaveArtifactJSON writes the provided result to <folder>/<base>.json and returns the full path.
func SaveArtifactJSON(folder string, logger hclog.Logger, command, analyzer string, result shared.GenericResult) (string, error) {
	if folder == "" {
		return "", fmt.Errorf("artifacts folder is not set")
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return "", err
	}

	base := GetArtifactName(command, analyzer, time.Now())
	path := filepath.Join(folder, base+".json")

	resultData, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return path, fmt.Errorf("error marshaling the result data: %w", err)
	}

	if err := files.WriteJsonFile(path, resultData); err != nil {
		return path, fmt.Errorf("error writing result to artifact file: %w", err)
	}
	logger.Info("artifact saved to file", "path", path)

	return path, nil
}
