// Package compiler provides a C-subset lexer, parser, and code generator
// that targets a Xinu-flavored stack machine.
//
// Pipeline: C source → Lex → Parse → Generate → stack-machine instructions.
package compiler
