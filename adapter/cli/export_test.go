package cli

var (
	HealthCmd  = healthCmd
	VersionCmd = versionCmd
)
