package validation

import (
	"fmt"
	"regexp"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
)

// RequiredGroups are the named groups every parser pattern must declare.
var RequiredGroups = []string{"file", "line", "message"}

// ValidateParserSetup checks that every pattern compiles and declares the required groups.
func ValidateParserSetup(req *shared.ParserSetupRequest) error {
	if len(req.Patterns) == 0 {
		return fmt.Errorf("at least one pattern is required")
	}

	for _, pattern := range req.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, group := range RequiredGroups {
			if re.SubexpIndex(group) < 0 {
				return fmt.Errorf("pattern %q lacks the named group %q", pattern, group)
			}
		}
	}
	return nil
}
