package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Service — имя сервиса в логах и health-ответах.
const Service = "appliance-service"

// Заполняются через -ldflags "-X .../internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Build — сведения о сборке.
type Build struct {
	Version string
	Commit  string
	Date    string
}

// Get возвращает сведения о текущей сборке.
func Get() Build {
	return Build{Version: version, Commit: commit, Date: date}
}

func (b Build) String() string {
	return fmt.Sprintf("%s version=%s commit=%s date=%s", Service, b.Version, b.Commit, b.Date)
}

// Fields возвращает сведения о сборке для стартового лога.
func (b Build) Fields() log.Fields {
	return log.Fields{
		"service": Service,
		"version": b.Version,
		"commit":  b.Commit,
		"built":   b.Date,
	}
}
