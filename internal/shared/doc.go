// Package shared provides common test helpers used across the panel report
// packages.
//
// # Structure
//
// - testutil: a buffered slog handler for log assertions and a deterministic
//   synthetic panel generator
//
// # Usage Guidelines
//
// This package should only contain helpers used by multiple packages. It
// must not depend on any other internal package.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WritePanelCSV(t, t.TempDir(), testutil.DefaultPanelSpec())
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
