package batterycode

// ProductType is the product discriminator at position 4.
type ProductType int

const (
	ProductUnknown ProductType = iota
	ProductCell
	ProductPack
	ProductModule
)

// ParseProductType maps a discriminator byte, case-insensitive.
func ParseProductType(c byte) ProductType {
	switch upper(c) {
	case 'C':
		return ProductCell
	case 'P':
		return ProductPack
	case 'M':
		return ProductModule
	default:
		return ProductUnknown
	}
}

// IsStructured reports whether the type is one the validator accepts.
func (p ProductType) IsStructured() bool {
	return p != ProductUnknown
}

// Label returns the display text used in decoded fields.
func (p ProductType) Label() string {
	switch p {
	case ProductCell:
		return "Battery Cell"
	case ProductPack:
		return "Battery Pack"
	case ProductModule:
		return "Battery Module"
	default:
		return Unknown
	}
}

func (p ProductType) String() string {
	switch p {
	case ProductCell:
		return "cell"
	case ProductPack:
		return "pack"
	case ProductModule:
		return "module"
	default:
		return "unknown"
	}
}

// CellChemistry is the chemistry discriminator at position 5.
type CellChemistry int

const (
	ChemistryUnknown CellChemistry = iota
	ChemistryLiFePO4
)

// ParseCellChemistry maps a discriminator byte, case-insensitive.
func ParseCellChemistry(c byte) CellChemistry {
	if upper(c) == 'B' {
		return ChemistryLiFePO4
	}
	return ChemistryUnknown
}

// Label returns the display text used in decoded fields.
func (c CellChemistry) Label() string {
	if c == ChemistryLiFePO4 {
		return "LiFePO4"
	}
	return Unknown
}

func (c CellChemistry) String() string {
	if c == ChemistryLiFePO4 {
		return "lifepo4"
	}
	return "unknown"
}

// FactoryLocation is the plant discriminator at position 14.
type FactoryLocation int

const (
	FactoryUnknown FactoryLocation = iota
	FactoryJingmen
	FactoryHuizhou
)

// ParseFactoryLocation maps a discriminator byte, case-insensitive.
func ParseFactoryLocation(c byte) FactoryLocation {
	switch upper(c) {
	case 'J':
		return FactoryJingmen
	case 'H':
		return FactoryHuizhou
	default:
		return FactoryUnknown
	}
}

// Label returns the display text used in decoded fields.
func (f FactoryLocation) Label() string {
	switch f {
	case FactoryJingmen:
		return "Jingmen"
	case FactoryHuizhou:
		return "Huizhou"
	default:
		return Unknown
	}
}

func (f FactoryLocation) String() string {
	switch f {
	case FactoryJingmen:
		return "jingmen"
	case FactoryHuizhou:
		return "huizhou"
	default:
		return "unknown"
	}
}

// CodeKind records which decoding path produced a Result.
type CodeKind string

const (
	KindStructured  CodeKind = "structured"
	KindFallback    CodeKind = "fallback"
	KindUndecodable CodeKind = "undecodable"
)

// upper folds ASCII lower-case letters only. Scanned payloads are ASCII;
// anything else passes through and fails the discriminator match.
func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
