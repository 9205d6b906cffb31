// Package main hosts the kodipack CLI entrypoint and command graph.
//
// Running kodipack with no subcommand packages the configured addon. The
// remaining commands report on what a run would touch (status), what past
// runs produced (history), the contents of a built zip (inspect), and
// configuration scaffolding (config).
package main
