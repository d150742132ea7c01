// internal/insight/extract.go
package insight

import "regexp"

// contractPattern matches a fully-qualified on-chain coin type:
// 0x + 64 hex characters + ::module::type.
var contractPattern = regexp.MustCompile(`0x[a-fA-F0-9]{64}::[a-zA-Z0-9_]+::[a-zA-Z0-9_]+`)

// ExtractContract returns the leftmost contract identifier found in
// text, or the empty string when there is none. The shape is validated,
// nothing else: a well-formed identifier that does not exist on chain
// is accepted here and will simply fail enrichment later.
func ExtractContract(text string) string {
	return contractPattern.FindString(text)
}
