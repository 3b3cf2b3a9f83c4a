package regs

const (
	eccClearBits = ECCCLRCorrected | ECCCLRUncorrected |
		ECCCLRCorrectedCount | ECCCLRUncorrectedCount
	alertClearBits = CRCPARCTL0ClrAlert | CRCPARCTL0ClrAlertCount
)

// Emulate installs write hooks that give f the side effects of the real
// controller registers:
//
//   - ECCCLR clear bits zero the matching ECCSTAT and ECCERRCNT fields and
//     read back as zero.
//   - CRCPARCTL0 clear bits do the same for CRCPARSTAT.
//   - Enabling the scrubber through SBRCTL drops the SBRSTAT done flag.
//   - QOSIRQSTAT is write-one-to-clear.
//
// Without them, a file loaded from a snapshot would keep reporting the same
// faults after they were cleared.
func Emulate(f *File) {
	f.OnWrite(ECCCLR, clearECC)
	f.OnWrite(CRCPARCTL0, clearAlert)
	f.OnWrite(SBRCTL, startScrub)
	f.OnWrite(QOSIRQSTAT, func(_ Window, old, new uint32) uint32 {
		return old &^ new
	})
}

func clearECC(w Window, _, v uint32) uint32 {
	stat := w.Get(ECCSTAT)
	count := w.Get(ECCERRCNT)

	if v&ECCCLRCorrected != 0 {
		stat &^= ECCSTATCorrected.Mask() | ECCSTATBitNum.Mask()
	}

	if v&ECCCLRUncorrected != 0 {
		stat &^= ECCSTATUncorrected.Mask()
	}

	if v&ECCCLRCorrectedCount != 0 {
		count &^= ECCERRCNTCorrected.Mask()
	}

	if v&ECCCLRUncorrectedCount != 0 {
		count &^= ECCERRCNTUncorrected.Mask()
	}

	w.Set(ECCSTAT, stat)
	w.Set(ECCERRCNT, count)

	return v &^ eccClearBits
}

func clearAlert(w Window, _, v uint32) uint32 {
	stat := w.Get(CRCPARSTAT)

	if v&CRCPARCTL0ClrAlert != 0 {
		stat &^= CRCPARSTATAlert
	}

	if v&CRCPARCTL0ClrAlertCount != 0 {
		stat &^= CRCPARSTATAlertCount.Mask()
	}

	w.Set(CRCPARSTAT, stat)

	return v &^ alertClearBits
}

func startScrub(w Window, old, v uint32) uint32 {
	if old&SBRCTLEnable == 0 && v&SBRCTLEnable != 0 {
		w.Set(SBRSTAT, w.Get(SBRSTAT)&^SBRSTATDone)
	}

	return v
}
