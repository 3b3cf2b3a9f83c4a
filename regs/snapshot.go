package regs

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Hex32 is a 32-bit value written to YAML in hexadecimal.
type Hex32 uint32

// MarshalYAML implements yaml.Marshaler.
func (h Hex32) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%08x", uint32(h)), nil
}

// UnmarshalYAML accepts any integer literal ParseUint understands.
func (h *Hex32) UnmarshalYAML(n *yaml.Node) error {
	v, err := strconv.ParseUint(n.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: %q is not a 32-bit value: %w",
			n.Line, n.Value, err)
	}

	*h = Hex32(v)

	return nil
}

// A Snapshot is a persisted register window together with the platform facts
// that cannot be read from the registers themselves.
type Snapshot struct {
	Platform    string          `yaml:"platform,omitempty"`
	CoreClockHz uint64          `yaml:"core_clock_hz,omitempty"`
	Registers   map[Hex32]Hex32 `yaml:"registers"`
	ReadOnly    []Hex32         `yaml:"read_only,omitempty"`
}

// LoadSnapshot reads a snapshot from a YAML file.
func LoadSnapshot(path string) (*Snapshot, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{}
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	if s.Registers == nil {
		s.Registers = make(map[Hex32]Hex32)
	}

	return s, nil
}

// Save writes the snapshot as YAML.
func (s *Snapshot) Save(path string) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0o644)
}

// File builds a register file holding the snapshot content. Clearing status
// registers through it behaves as on the controller, see Emulate.
func (s *Snapshot) File() *File {
	f := NewFile(WindowSize)
	Emulate(f)

	for o, v := range s.Registers {
		f.Set(uint32(o), uint32(v))
	}

	for _, o := range s.ReadOnly {
		f.MarkReadOnly(uint32(o))
	}

	return f
}

// Capture replaces the snapshot registers with the content of f.
func (s *Snapshot) Capture(f *File) {
	s.Registers = make(map[Hex32]Hex32)
	for _, o := range f.Offsets() {
		s.Registers[Hex32(o)] = Hex32(f.Get(o))
	}

	s.ReadOnly = s.ReadOnly[:0]
	for _, o := range f.ReadOnlyOffsets() {
		s.ReadOnly = append(s.ReadOnly, Hex32(o))
	}
}

// ConfigOffsets lists the registers the engine reads to learn the controller
// configuration and its live state.
func ConfigOffsets() []uint32 {
	offsets := []uint32{
		MSTR, ECCCFG0, ECCCFG1, ECCSTAT, ECCCLR, ECCERRCNT,
		ECCCADDR0, ECCCADDR1, ECCCSYN0, ECCCSYN1, ECCCSYN2,
		ECCUADDR0, ECCUADDR1, ECCUSYN0, ECCUSYN1, ECCUSYN2,
		ECCPOISON0, ECCPOISON1, CRCPARCTL0, CRCPARSTAT,
		POISONPAT1, SBRCTL, SBRSTAT, SBRWDATA0,
	}

	for i := 0; i < NumAddrMap; i++ {
		offsets = append(offsets, ADDRMAP0+uint32(i)*4)
	}

	for i := 0; i < 2*NumSAR; i++ {
		offsets = append(offsets, SARBASE0+uint32(i)*4)
	}

	return offsets
}

// Dump reads the given registers from any space into a snapshot. Registers
// that fail to read abort the dump.
func Dump(s Space, offsets []uint32) (*Snapshot, error) {
	snap := &Snapshot{Registers: make(map[Hex32]Hex32)}

	for _, o := range offsets {
		v, err := s.Read32(o)
		if err != nil {
			return nil, err
		}

		if v != 0 {
			snap.Registers[Hex32(o)] = Hex32(v)
		}
	}

	return snap, nil
}
