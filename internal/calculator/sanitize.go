package calculator

import "regexp"

// operatorRun matches two or more consecutive operators. The capture holds
// the last one.
var operatorRun = regexp.MustCompile(`([+/*-]){2,}`)

// Sanitize collapses every run of two or more operators to the last operator
// of the run, so "5++2" becomes "5+2" and "5*-2" becomes "5-2".
func Sanitize(expr string) string {
	return operatorRun.ReplaceAllString(expr, "$1")
}
