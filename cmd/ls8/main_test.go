package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ls8", func() {
	var (
		stdin  *strings.Reader
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	)

	BeforeEach(func() {
		stdin = strings.NewReader("")
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	ls8 := func(args ...string) int {
		return run(context.Background(), args, stdin, stdout, stderr)
	}

	Describe("running binary programs", func() {
		It("should print 8 and halt on HLT", func() {
			Expect(ls8("-hlt", "testdata/print8.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(Equal(strings.Join([]string{
				"Loading testdata/print8.ls8...",
				"Running...",
				"8",
				"Halted.",
				"",
			}, "\n")))
			Expect(stderr.String()).To(BeEmpty())
		})

		It("should multiply", func() {
			Expect(ls8("-hlt", "testdata/mult.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n72\n"))
		})

		It("should call subroutines", func() {
			Expect(ls8("-hlt", "testdata/call.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n20\n40\nHalted.\n"))
		})

		It("should retry the name with the .ls8 extension", func() {
			Expect(ls8("-hlt", "testdata/print8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("Loading testdata/print8..."))
			Expect(stdout.String()).To(ContainSubstring("\n8\n"))
		})

		It("should spin on HLT until the instruction limit", func() {
			Expect(ls8("-limit", "100", "testdata/print8.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n8\nHalted.\n"))
		})

		It("should write the tape to a file", func() {
			output := filepath.Join(GinkgoT().TempDir(), "tape.txt")
			Expect(ls8("-hlt", "-o", output, "testdata/mult.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).NotTo(ContainSubstring("72"))

			data, err := os.ReadFile(output)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("72\n"))
		})
	})

	Describe("assembling programs", func() {
		It("should assemble and run source", func() {
			Expect(ls8("-a", "-hlt", "testdata/sum.asm")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n17\n243\n65\n17\nHalted.\n"))
		})

		It("should retry the name with the .asm extension", func() {
			Expect(ls8("-a", "-hlt", "testdata/sum")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n17\n"))
		})

		It("should report assembler errors", func() {
			source := filepath.Join(GinkgoT().TempDir(), "bad.asm")
			Expect(os.WriteFile(source, []byte("LDI R0,1\nFOO R1\n"), 0644)).To(Succeed())

			Expect(ls8("-a", source)).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("line 2"))
			Expect(stderr.String()).To(ContainSubstring("opcode invalid"))
		})
	})

	Describe("listing programs", func() {
		It("should disassemble without running", func() {
			Expect(ls8("-l", "testdata/mult.ls8")).To(Equal(EXIT_OK))
			Expect(stdout.String()).To(ContainSubstring("00: LDI R0,8\n03: LDI R1,9\n06: MUL R0,R1\n09: PRN R0\n0B: HLT\n"))
			Expect(stdout.String()).NotTo(ContainSubstring("Running..."))
		})
	})

	Describe("stopping", func() {
		It("should stop on the operator stop key", func() {
			stdin = strings.NewReader("abx")
			Expect(ls8("testdata/loop.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\na\n\nb\n\nx\n"))
			Expect(stdout.String()).To(HaveSuffix("Exiting...\nHalted.\n"))
		})

		It("should use a custom stop key", func() {
			stdin = strings.NewReader("xq")
			Expect(ls8("-stop", "q", "testdata/loop.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(HaveSuffix("\nq\nExiting...\nHalted.\n"))
		})

		It("should stop a program printing in a loop", func() {
			stdin = strings.NewReader("abx")
			Expect(ls8("testdata/printloop.ls8")).To(Equal(EXIT_HALTED))
			Expect(stdout.String()).To(ContainSubstring("\n0\n"))
			Expect(stdout.String()).To(ContainSubstring("\nx\n"))
			Expect(stdout.String()).To(HaveSuffix("Exiting...\nHalted.\n"))
		})

		It("should print past the tape's memory", func() {
			Expect(ls8("-limit", "200000", "testdata/printloop.ls8")).To(Equal(EXIT_HALTED))
			Expect(strings.Count(stdout.String(), "\n0\n")).To(BeNumerically(">", 65536/2))
			Expect(stderr.String()).To(BeEmpty())
		})

		It("should report an interrupt", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(run(ctx, []string{"testdata/loop.ls8"}, stdin, stdout, stderr)).To(Equal(EXIT_INTERRUPT))
			Expect(stdout.String()).To(HaveSuffix("Running...\nInterrupted\n"))
		})
	})

	Describe("lockedWriter", func() {
		It("should keep concurrent writes whole", func() {
			buffer := &bytes.Buffer{}
			writer := &lockedWriter{Writer: buffer}

			done := make(chan struct{})
			for range 4 {
				go func() {
					defer GinkgoRecover()
					for range 100 {
						_, err := writer.Write([]byte("abcd\n"))
						Expect(err).NotTo(HaveOccurred())
					}
					done <- struct{}{}
				}()
			}
			for range 4 {
				<-done
			}

			Expect(buffer.String()).To(Equal(strings.Repeat("abcd\n", 400)))
		})
	})

	Describe("failures", func() {
		It("should fail on an unknown opcode", func() {
			Expect(ls8("testdata/fault.ls8")).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("line 8"))
			Expect(stderr.String()).To(ContainSubstring("instruction 0xff .db 0b11111111"))
			Expect(stdout.String()).NotTo(ContainSubstring("Halted."))
		})

		It("should fail on a missing program", func() {
			Expect(ls8("testdata/missing")).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("testdata/missing"))
		})

		It("should fail on a malformed program", func() {
			source := filepath.Join(GinkgoT().TempDir(), "bad.ls8")
			Expect(os.WriteFile(source, []byte("10000010\n0101\n"), 0644)).To(Succeed())

			Expect(ls8(source)).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("line 2"))
		})

		It("should require exactly one program", func() {
			Expect(ls8()).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("usage: ls8"))

			Expect(ls8("a.ls8", "b.ls8")).To(Equal(EXIT_FAULT))
		})

		It("should reject a multi-key stop", func() {
			Expect(ls8("-stop", "xy", "testdata/loop.ls8")).To(Equal(EXIT_FAULT))
			Expect(stderr.String()).To(ContainSubstring("-stop"))
		})

		It("should reject unknown flags", func() {
			Expect(ls8("-bogus", "testdata/loop.ls8")).To(Equal(EXIT_FAULT))
		})

		It("should succeed on help", func() {
			Expect(ls8("-h")).To(Equal(EXIT_OK))
			Expect(stderr.String()).To(ContainSubstring("-limit"))
		})
	})
})
