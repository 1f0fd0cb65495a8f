package main

import (
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/validation"
)

// validateSetupArgs checks the patterns passed to Setup.
func validateSetupArgs(req *shared.ParserSetupRequest) error {
	return validation.ValidateParserSetup(req)
}
