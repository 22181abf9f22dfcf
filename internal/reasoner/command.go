package reasoner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// FilePlaceholder in CommandReasoner.Args is replaced by the path of the
// serialized ontology.
const FilePlaceholder = "{file}"

// DefaultInconsistentMarkers are matched case-insensitively against each
// output line of an external reasoner. A marker matches only at the start
// or the end of a line, so "0 inconsistent classes" or an exception class
// name in a stack trace does not count.
var DefaultInconsistentMarkers = []string{
	"consistent: no",
	"ontology is inconsistent",
	"inconsistent ontology",
}

// CommandReasoner runs an external reasoner binary (Pellet, HermiT, ROBOT
// and similar) against an N-Triples dump of the graph.
type CommandReasoner struct {
	Path string
	Args []string
	// InconsistentMarkers override DefaultInconsistentMarkers.
	InconsistentMarkers []string
	// TempDir holds the dump; empty means os.TempDir.
	TempDir string
}

func (c *CommandReasoner) Name() string {
	return "command:" + c.Path
}

// Check implements Reasoner. The command is killed when ctx ends.
func (c *CommandReasoner) Check(ctx context.Context, g *rdf.Graph) (Verdict, error) {
	if c.Path == "" {
		return Verdict{}, errors.New("reasoner command not set")
	}

	f, err := os.CreateTemp(c.TempDir, "ontometer-*.nt")
	if err != nil {
		return Verdict{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())

	w := bufio.NewWriter(f)
	if err := rdf.EncodeNTriples(w, g); err != nil {
		f.Close()
		return Verdict{}, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return Verdict{}, fmt.Errorf("writing ontology: %w", err)
	}
	if err := f.Close(); err != nil {
		return Verdict{}, fmt.Errorf("closing ontology: %w", err)
	}

	args := make([]string, len(c.Args))
	substituted := false
	for i, a := range c.Args {
		if strings.Contains(a, FilePlaceholder) {
			substituted = true
		}
		args[i] = strings.ReplaceAll(a, FilePlaceholder, f.Name())
	}
	if !substituted {
		args = append(args, f.Name())
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Verdict{}, ctx.Err()
	}

	markers := c.InconsistentMarkers
	if len(markers) == 0 {
		markers = DefaultInconsistentMarkers
	}
	if hasMarker(out.String(), markers) {
		return Verdict{Consistent: false}, nil
	}
	if runErr != nil {
		return Verdict{}, fmt.Errorf("%s: %w: %s", c.Path, runErr, strings.TrimSpace(out.String()))
	}
	return Verdict{Consistent: true}, nil
}

func hasMarker(output string, markers []string) bool {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(strings.ToLower(strings.TrimSpace(line)), ".!")
		if line == "" {
			continue
		}
		for _, m := range markers {
			m = strings.ToLower(m)
			if strings.HasPrefix(line, m) || strings.HasSuffix(line, m) {
				return true
			}
		}
	}
	return false
}
