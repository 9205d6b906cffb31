// Package preflight provides readiness checks for the filesystem paths a
// packaging run touches.
//
// The CLI "kodipack status" command renders RunAll's results. Checks marked
// Optional describe conditions that change what a run does rather than
// whether it can run: a missing addon directory, for example, selects the
// republish path instead of failing.
package preflight
