package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/username/strperformance/backend/src/logger"
)

var (
	// Common XSS vectors. Comments are also sanitised before storage.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|livescript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
	)
	// Cells starting with these are evaluated as formulas when the roster is exported to a spreadsheet.
	// A "- " bullet is plain text; "-" only starts a formula when a digit, "=", "(" or "@" follows.
	formulaInjectionPrefixRegex = regexp.MustCompile(`^(?:[=+@]|-[0-9=(@])`)
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CheckXSSPatterns rejects text carrying basic script injection vectors.
func CheckXSSPatterns(s, fieldName, contextID string) error {
	if xssPatternsRegex.MatchString(s) {
		errMsg := fmt.Sprintf("potential XSS pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}

// CheckFormulaInjection rejects text that a spreadsheet would evaluate as a formula.
func CheckFormulaInjection(s, fieldName, contextID string) error {
	if formulaInjectionPrefixRegex.MatchString(strings.TrimSpace(s)) {
		errMsg := fmt.Sprintf("potential formula injection pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}
