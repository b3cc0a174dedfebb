package ltdenv

// EnvCode identifies one of the fixed deployment environments.
type EnvCode string

const (
	Dev EnvCode = "dev"
	Tst EnvCode = "tst"
	Prd EnvCode = "prd"
)

// DefaultEnvCode is used whenever the external value is absent or unknown.
const DefaultEnvCode = Tst

// EnvCodes returns every environment code in a stable order.
func EnvCodes() []EnvCode {
	return []EnvCode{Dev, Tst, Prd}
}

// Valid reports whether c is one of the known environment codes.
func (c EnvCode) Valid() bool {
	switch c {
	case Dev, Tst, Prd:
		return true
	default:
		return false
	}
}

func (c EnvCode) String() string { return string(c) }

// Resolve maps a raw external value onto an environment code. Anything that
// is not an exact match falls back to [DefaultEnvCode].
func Resolve(raw string) EnvCode {
	if code := EnvCode(raw); code.Valid() {
		return code
	}
	return DefaultEnvCode
}
