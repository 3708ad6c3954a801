// label.go defines the Docker labels applied to receiver containers.
//
// Labels are the only persistence this tool has: a container found with
// the managed-by label belongs to hookrunner, and its app/port labels
// say what it was launched for. The check command uses this to report
// stale receivers left behind by earlier runs.
package docker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/artclub/hookrunner/internal/model"
)

const (
	// LabelPrefix namespaces all hookrunner labels away from those set
	// by other tooling (Compose, VS Code, etc.).
	LabelPrefix = "hookrunner."

	// LabelManagedBy identifies containers created by this launcher.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelApp stores the application reference the container serves.
	LabelApp = LabelPrefix + "app"

	// LabelPort stores the published host port.
	LabelPort = LabelPrefix + "port"

	// LabelCreatedAt stores the launch timestamp in RFC3339 form.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of the LabelManagedBy label on every
// container this launcher creates.
const ManagedByValue = "hookrunner"

// BuildLabels constructs the label set for a receiver container.
func BuildLabels(spec model.LaunchSpec) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelApp:       spec.App,
		LabelPort:      strconv.Itoa(spec.Port),
		LabelCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ParseLabels extracts the app reference and published port from a
// managed container's labels. Returns an error for containers that do
// not carry the managed-by marker or whose port label is unreadable.
func ParseLabels(labels map[string]string) (app string, port int, err error) {
	if labels[LabelManagedBy] != ManagedByValue {
		return "", 0, fmt.Errorf("container is not managed by hookrunner")
	}

	app = labels[LabelApp]

	portStr, ok := labels[LabelPort]
	if !ok {
		return "", 0, fmt.Errorf("container is missing the %s label", LabelPort)
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid %s label value %q: %w", LabelPort, portStr, err)
	}

	return app, port, nil
}
