package cfg

type Cfg struct {
	// Subscription list configuration
	SourceOPML string
	TargetOPML string

	// Storage configuration
	DataDir   string
	OutputDir string

	// Application configuration
	Port          string
	BaseUrl       string
	Interval      int
	MaxIterations int
	WorkerCount   int
	SettingsFile  string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
