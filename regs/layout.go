package regs

// Register byte offsets within the controller window.
const (
	MSTR       uint32 = 0x000
	ECCCFG0    uint32 = 0x070
	ECCCFG1    uint32 = 0x074
	ECCSTAT    uint32 = 0x078
	ECCCLR     uint32 = 0x07C
	ECCERRCNT  uint32 = 0x080
	ECCCADDR0  uint32 = 0x084
	ECCCADDR1  uint32 = 0x088
	ECCCSYN0   uint32 = 0x08C
	ECCCSYN1   uint32 = 0x090
	ECCCSYN2   uint32 = 0x094
	ECCBITMASK uint32 = 0x098
	ECCUADDR0  uint32 = 0x0A4
	ECCUADDR1  uint32 = 0x0A8
	ECCUSYN0   uint32 = 0x0AC
	ECCUSYN1   uint32 = 0x0B0
	ECCUSYN2   uint32 = 0x0B4
	ECCPOISON0 uint32 = 0x0B8
	ECCPOISON1 uint32 = 0x0BC
	CRCPARCTL0 uint32 = 0x0C0
	CRCPARSTAT uint32 = 0x0CC
	ADDRMAP0   uint32 = 0x200
	SWCTL      uint32 = 0x320
	POISONPAT0 uint32 = 0x37C
	POISONPAT1 uint32 = 0x380
	POISONPAT2 uint32 = 0x384
	SARBASE0   uint32 = 0xF04
	SARSIZE0   uint32 = 0xF08
	SBRCTL     uint32 = 0xF24
	SBRSTAT    uint32 = 0xF28
	SBRWDATA0  uint32 = 0xF2C
	SBRWDATA1  uint32 = 0xF30

	// ZynqMP wraps the controller with a QoS block holding the ECC interrupt
	// status, enable and disable registers.
	QOSIRQSTAT uint32 = 0x20200
	QOSIRQEN   uint32 = 0x20208
	QOSIRQDB   uint32 = 0x2020C

	// WindowSize covers every register above, ZynqMP QoS block included.
	WindowSize uint32 = 0x21000
)

// NumAddrMap is the number of ADDRMAPx registers.
const NumAddrMap = 12

// NumSAR is the maximum number of system address regions.
const NumSAR = 4

// MSTR fields.
var (
	MSTRDevConfig   = Bits(31, 30)
	MSTRActiveRanks = Bits(27, 24)
	MSTRBurstRdWr   = Bits(19, 16)
	MSTRBusWidth    = Bits(13, 12)
	MSTRMemType     = Bits(5, 0)
)

// MSTRFreqRatio11 is set when the HIF and SDRAM clocks run 1:1.
const MSTRFreqRatio11 uint32 = 1 << 22

// ECCCFG0 fields.
var ECCCFG0Mode = Bits(2, 0)

// ECCCFG0DisableScrub turns off the ECC hardware scrub.
const ECCCFG0DisableScrub uint32 = 1 << 4

// ECCCFG1 bits.
const (
	ECCCFG1PoisonEnable uint32 = 1 << 0
	ECCCFG1PoisonBit    uint32 = 1 << 1
)

// ECCSTAT fields.
var (
	ECCSTATUncorrected = Bits(23, 16)
	ECCSTATCorrected   = Bits(15, 8)
	ECCSTATBitNum      = Bits(6, 0)
)

// ECCCLR bits.
const (
	ECCCLRCorrected        uint32 = 1 << 0
	ECCCLRUncorrected      uint32 = 1 << 1
	ECCCLRCorrectedCount   uint32 = 1 << 2
	ECCCLRUncorrectedCount uint32 = 1 << 3
	ECCCLREnCorrectedIRQ   uint32 = 1 << 8
	ECCCLREnUncorrectedIRQ uint32 = 1 << 9
)

// ECCERRCNT fields.
var (
	ECCERRCNTUncorrected = Bits(31, 16)
	ECCERRCNTCorrected   = Bits(15, 0)
)

// Fault address fields, shared by the corrected and uncorrected registers.
var (
	ECCADDR0Rank      = Bits(27, 24)
	ECCADDR0Row       = Bits(17, 0)
	ECCADDR1BankGroup = Bits(25, 24)
	ECCADDR1Bank      = Bits(23, 16)
	ECCADDR1Col       = Bits(11, 0)
)

// CRCPARCTL0 bits.
const (
	CRCPARCTL0EnAlertIRQ    uint32 = 1 << 0
	CRCPARCTL0ClrAlert      uint32 = 1 << 1
	CRCPARCTL0ClrAlertCount uint32 = 1 << 2
)

// CRCPARSTAT fields.
var CRCPARSTATAlertCount = Bits(15, 0)

// CRCPARSTATAlert is set while a DFI alert is pending.
const CRCPARSTATAlert uint32 = 1 << 16

// ECCPOISONx fields.
var (
	ECCPOISON0Rank      = Bits(27, 24)
	ECCPOISON0Col       = Bits(11, 0)
	ECCPOISON1BankGroup = Bits(29, 28)
	ECCPOISON1Bank      = Bits(26, 24)
	ECCPOISON1Row       = Bits(17, 0)
)

// ADDRMAPx sub-fields. The M15 fields are 4 bits wide and the M31 fields 5
// bits wide; a field holding its maximum marks the coordinate bit unused.
var (
	AddrMapB0M15  = Bits(3, 0)
	AddrMapB8M15  = Bits(11, 8)
	AddrMapB16M15 = Bits(19, 16)
	AddrMapB24M15 = Bits(27, 24)

	AddrMapB0M31  = Bits(4, 0)
	AddrMapB8M31  = Bits(12, 8)
	AddrMapB16M31 = Bits(20, 16)
	AddrMapB24M31 = Bits(28, 24)
)

// SBRCTL fields.
var (
	SBRCTLInterval = Bits(20, 8)
	SBRCTLBurst    = Bits(6, 4)
)

// SBRCTL bits.
const (
	SBRCTLModeWrite uint32 = 1 << 2
	SBRCTLEnable    uint32 = 1 << 0
)

// SBRSTAT bits.
const (
	SBRSTATBusy uint32 = 1 << 0
	SBRSTATDone uint32 = 1 << 1
)

// QOSIRQSTAT bits.
const (
	QOSCorrected   uint32 = 1 << 1
	QOSUncorrected uint32 = 1 << 2
)
