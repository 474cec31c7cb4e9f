package vip8_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/guslan/vip8"
)

var _ = Describe("Decoder", func() {
	Describe("round trip", func() {
		It("should re-encode every opcode it accepts", func() {
			accepted := 0
			for op := 0; op <= 0xFFFF; op++ {
				ins, err := vip8.Decode(uint16(op))
				if err != nil {
					var unknown vip8.ErrOpCodeUnknown
					Expect(errors.As(err, &unknown)).To(BeTrue())
					Expect(unknown.OpCode).To(Equal(uint16(op)))
					continue
				}

				accepted++
				Expect(ins.Opcode()).To(Equal(uint16(op)), "%04X decoded as %s", op, ins)
			}

			// 11 full nibbles, 5XY0 and 9XY0, nine 8XY forms, two EX forms, nine FX forms
			Expect(accepted).To(Equal(4096*11 + 256*2 + 256*9 + 16*2 + 16*9))
		})
	})

	DescribeTable("instruction shapes",
		func(op uint16, want vip8.Instruction, mnemonic string) {
			ins, err := vip8.Decode(op)

			Expect(err).NotTo(HaveOccurred())
			Expect(ins).To(Equal(want))
			Expect(ins.String()).To(Equal(mnemonic))
		},
		Entry("CLS", uint16(0x00E0), vip8.Cls{}, "CLS"),
		Entry("RET", uint16(0x00EE), vip8.Ret{}, "RET"),
		Entry("SYS", uint16(0x0123), vip8.Sys{Addr: 0x123}, "SYS 0x123"),
		Entry("JP", uint16(0x1ABC), vip8.Jp{Addr: 0xABC}, "JP 0xABC"),
		Entry("CALL", uint16(0x2DEF), vip8.Call{Addr: 0xDEF}, "CALL 0xDEF"),
		Entry("SE byte", uint16(0x3A42), vip8.SeByte{X: 0xA, KK: 0x42}, "SE VA, 0x42"),
		Entry("SE reg", uint16(0x5120), vip8.SeReg{X: 1, Y: 2}, "SE V1, V2"),
		Entry("LD byte", uint16(0x600A), vip8.LdByte{X: 0, KK: 0x0A}, "LD V0, 0x0A"),
		Entry("ADD reg", uint16(0x8AB4), vip8.AddReg{X: 0xA, Y: 0xB}, "ADD VA, VB"),
		Entry("LD I", uint16(0xA228), vip8.LdI{Addr: 0x228}, "LD I, 0x228"),
		Entry("DRW", uint16(0xD125), vip8.Drw{X: 1, Y: 2, N: 5}, "DRW V1, V2, 5"),
		Entry("SKP", uint16(0xE39E), vip8.Skp{X: 3}, "SKP V3"),
		Entry("LD K", uint16(0xF40A), vip8.LdVxK{X: 4}, "LD V4, K"),
		Entry("LD B", uint16(0xF533), vip8.LdBVx{X: 5}, "LD B, V5"),
		Entry("LD [I]", uint16(0xFF55), vip8.LdIVx{X: 0xF}, "LD [I], VF"),
	)

	DescribeTable("unknown opcodes",
		func(op uint16) {
			ins, err := vip8.Decode(op)

			Expect(ins).To(BeNil())
			Expect(err).To(MatchError(vip8.ErrOpCodeUnknown{OpCode: op}))
		},
		Entry("5XY1", uint16(0x5121)),
		Entry("8XY8", uint16(0x8128)),
		Entry("8XYF", uint16(0x812F)),
		Entry("9XY1", uint16(0x9121)),
		Entry("EX00", uint16(0xE100)),
		Entry("FX00", uint16(0xF100)),
		Entry("FXFF", uint16(0xFFFF)),
	)
})
