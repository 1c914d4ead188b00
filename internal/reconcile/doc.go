// Package reconcile decides which wanted titles can be produced from the
// candidate inventory by exact content fingerprint.
//
// Reconciliation is pure: it reads the manifest entries and the inventory
// and returns MatchResult values describing where each file comes from and
// where it should land. Layout owns the naming rules for the target
// directory so the materializer, the fuzzy resolver and the holdings audit
// agree on file names.
package reconcile
