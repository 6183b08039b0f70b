// Package hcl loads test suites from HCL files into the engine's keyword
// item model. It is a thin front for driving the engine from the CLI;
// the engine itself never depends on it. Blocks are translated manually
// from the syntax tree so that call and for blocks keep their source
// order.
//
// Variable references use the engine's "${x}" syntax, which collides with
// HCL template interpolation; suite files therefore write them escaped as
// "$${x}".
package hcl
