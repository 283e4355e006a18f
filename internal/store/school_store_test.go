package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The random claim must re-check process = FALSE in the outer WHERE, not
// just in the subquery. Under READ COMMITTED the post-lock row recheck only
// re-evaluates the outer predicates, so a claim guarded solely by
// urn = (subquery) lets a second concurrent caller claim the same school.
func TestClaimRandomUnprocessedQueryRechecksFlag(t *testing.T) {
	outer := claimRandomUnprocessedQuery
	if i := strings.Index(outer, "("); i >= 0 {
		outer = outer[:i]
	}

	require.Regexp(t, regexp.MustCompile(`WHERE\s+process = FALSE\s+AND\s+urn =`), outer)
	require.Contains(t, claimRandomUnprocessedQuery, "RETURNING")
}
