// Package hashutil computes a Job's cmdhash: a deterministic digest of the
// declared command plus its input identities (spec §3 invariant 2), using
// crypto/sha256 the way distr1-distri/cmd/zi/zi.go's verify() hashes
// downloaded sources.
package hashutil

import (
	"crypto/sha256"
	"fmt"
)

// CmdHash hashes cmdline together with the stable hashids of every input
// the job depends on (its declared dependencies, in the order given by the
// graph builder). Depending only on declared command + input identities
// makes it deterministic and insensitive to unrelated graph changes.
func CmdHash(cmdline string, inputHashIDs []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "cmdline\x00%s\x00", cmdline)
	for _, id := range inputHashIDs {
		fmt.Fprintf(h, "input\x00%s\x00", id)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
