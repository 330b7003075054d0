// Package cpu implements the processor, loader and assembler for the LS-8 system.
//
// The CPU consists of eight general-purpose registers (R0-R7, with R7 used as
// the stack pointer), 256 cells of memory shared by program text and the
// stack, a program counter (PC) and a flags register (FL) written by CMP.
// Instructions are one opcode byte followed by zero, one or two operand bytes;
// the operand count is carried in the two most significant bits of the opcode.
//
// Programs are loaded from the binary-text ".ls8" format (ParseProgram), or
// assembled from LS-8 assembly source (Assembler), which supports labels,
// equates, macros and compile-time expressions.
package cpu
