package consts

// Client flavors
const (
	Zodios = "zodios"
)

const (
	// DefaultFileName is the output file of an ungrouped client.
	DefaultFileName = "client.ts"
	// CommonFileName holds the schemas shared by file groups.
	CommonFileName = "common.ts"
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "OPENAPI_ZOD_"
)
