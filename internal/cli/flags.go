package cli

// Flags holds all command-line flag values
type Flags struct {
	CfgFile   string
	DataDir   string
	OutputDir string
	Verbose   bool
	Quiet     bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		DataDir: "data",
	}
}
