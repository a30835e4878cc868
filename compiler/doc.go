/*
Package compiler is a small JIT for x86-64.

Process of compilation

Builder calls ->
Intermediate Representation (ir) ->
	verify ->
	back (select, allocate, encode) ->
Machine Code with call placeholders (back.Object) ->
	link ->
Executable Memory (exec.Mem) ->
	call

Functions are added to a Compiler, built with their Builder,
and jitted together so they may call each other by name.
*/
package compiler
