// Package loader reads event definitions from a content tree and binds
// them into a pool.
//
// Layout:
//
//	<root>/contexts/<context>/packs/<pack>/events/<name>.yaml
//
// A sibling <name>.custom.yaml replaces <name>.yaml when present. Custom
// documents without a base document are ignored. Both .yaml and .yml are
// accepted. Type directories other than "events" belong to subsystems
// outside this module and are skipped.
//
// Every document is checked against an embedded CUE schema for
// structural typing before it is decoded. Problems with one file never
// stop the rest of the tree from loading: the file is logged and
// reported, and loading continues.
package loader
