// internal is internal packages for ssdash.
//
// The packages are layered.
// history, session, and view know nothing about the other internal packages.
// store keeps the state on top of history, stream reads the push stream, and reconcile drives both of them.
// endpoint, mcp, and export render the state that reconcile keeps.
//
// The dasherr package and the testutil package is exception cases for this rule.
// These packages used by other packages.
package internal
