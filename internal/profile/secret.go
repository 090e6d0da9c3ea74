package profile

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/agentic-research/fhttp/internal/config"
)

// resolvePass invokes the external secret tool. Swappable for tests.
var resolvePass = func(path string) (string, error) {
	out, err := exec.Command("pass", path).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("pass returned an error: '%s'", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("invoking pass: %w", err)
	}
	return string(out), nil
}

// promptFn asks the user for a missing env var on stderr and reads the
// answer from stdin. Swappable for tests.
var promptFn = func(key string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", key)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Secret) resolve(cfg config.Config, forDependency bool) (string, error) {
	if cfg.Curl && !forDependency {
		return fmt.Sprintf("$(pass %s)", s.Path), nil
	}
	if s.cache == nil {
		zap.S().Infof("resolving pass secret '%s'", s.Path)
		value, err := resolvePass(s.Path)
		if err != nil {
			return "", err
		}
		trimmed := strings.TrimSpace(value)
		s.cache = &trimmed
	}
	return *s.cache, nil
}
