// Package cryo freezes expensive-to-recompute objects to disk so later
// process runs can reload them instead of rebuilding.
//
// An application type embeds or holds a *Freezable and implements Kinder.
// Construction resolves a private directory from the object's kind, name
// and ancestry, creates it idempotently, and opens the stores inside it:
//
//	type Cohort struct {
//		*cryo.Freezable
//	}
//
//	func (Cohort) Kind() string { return "Cohort" }
//
//	base, err := cryo.New(ctx, Cohort{}, "freeze1",
//		cryo.WithBaseDir("/var/lib/cryo"))
//
// Objects nest: passing cryo.WithParent places the child's directory inside
// the parent's and registers it in the parent's child registry. The
// resulting namespace tree is rooted at the configured base directory:
//
//	{base}/databases/Cohort.freeze1/
//	{base}/databases/Cohort.freeze1/Locus.chr1/
//	{base}/tmp/
//
// Relational access, bulk transactions and ad-hoc queries live in package
// reldb; the key-value mapping in package kv; configuration in package
// config. See each package's documentation for its contract.
package cryo
