package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	GrpcHost  string           `yaml:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port"`
	API       MAPIConfig       `yaml:"api"`
	Storage   MStorageConfig   `yaml:"storage"`
	Animation MAnimationConfig `yaml:"animation"`
	Catalog   MCatalogConfig   `yaml:"catalog"`
	Viewer    MViewerConfig    `yaml:"viewer"`
}

type MAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 disables the client timeout
	Proxy          string `yaml:"proxy"`
	UserAgent      string `yaml:"user_agent"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

// MAnimationConfig holds the pacing of the agent replay, in milliseconds.
type MAnimationConfig struct {
	StepMs            int `yaml:"step_ms" json:"step_ms"`
	DwellMs           int `yaml:"dwell_ms" json:"dwell_ms"`
	CollectionPauseMs int `yaml:"collection_pause_ms" json:"collection_pause_ms"`
	CashierPauseMs    int `yaml:"cashier_pause_ms" json:"cashier_pause_ms"`
	ProcessingPauseMs int `yaml:"processing_pause_ms" json:"processing_pause_ms"`
}

type MCatalogConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type MViewerConfig struct {
	CellSize     int       `yaml:"cell_size" json:"cell_size"`
	DefaultStart MPosition `yaml:"default_start" json:"default_start"`
}
