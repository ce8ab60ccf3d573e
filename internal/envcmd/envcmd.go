package envcmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/inovacc/stanup/internal/config"
)

type EnvVar struct {
	Name  string
	Value string
}

// Env returns the effective tool environment, sorted by name.
func Env() []EnvVar {
	cfg := config.GetConfig

	env := []EnvVar{
		{Name: "CMDSTAN", Value: os.Getenv("CMDSTAN")},
		{Name: "STANUP_HOME", Value: cfg.InstallHome()},
		{Name: "STANUP_CORES", Value: fmt.Sprintf("%d", cfg.Installer.Cores)},
		{Name: "STANUP_DB", Value: cfg.Db.Dbname},
		{Name: "STANUP_DB_PATH", Value: cfg.Db.DBPath},
		{Name: "STANUP_LOG_LEVEL", Value: string(cfg.Logger.LogLevel)},
		{Name: "STANUP_LOG_FORMAT", Value: string(cfg.Logger.LogFormat)},
		{Name: "GITHUB_TOKEN", Value: redact(os.Getenv("GITHUB_TOKEN"))},
		{Name: "HOSTARCH", Value: runtime.GOARCH},
		{Name: "HOSTOS", Value: runtime.GOOS},
	}

	sort.Slice(env, func(i, j int) bool {
		return env[i].Name < env[j].Name
	})
	return env
}

// Print writes the environment in NAME="value" form.
func Print(w io.Writer) {
	for _, e := range Env() {
		fmt.Fprintf(w, "%s=%q\n", e.Name, e.Value)
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
