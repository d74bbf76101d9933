// Package process implements the "process" provider: runs a subprocess
// and returns its parsed stdout as the result data. Grounded on
// original_source/flow+evans/connectors/process.py and the teacher's
// internal/block/executor_bash.go.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

func init() {
	provider.RegisterPlugin("process", New)
}

// PassMode selects how the rendered payload reaches the subprocess.
type PassMode string

const (
	PassArg   PassMode = "arg"
	PassStdin PassMode = "stdin"
)

// Process runs a configured command as a subprocess.
type Process struct {
	command        []string
	passTo         PassMode
	timeout        time.Duration
	redactArgs     map[int]struct{}
	redactPatterns []string
	logFullCommand bool
}

// New constructs a Process provider from its rendered configuration.
func New(cfg map[string]interface{}) (provider.Provider, error) {
	cmd, err := parseCommand(cfg["command"])
	if err != nil {
		return nil, err
	}

	p := &Process{
		command: cmd,
		passTo:  PassArg,
	}

	if v, ok := cfg["pass_to"].(string); ok && v != "" {
		p.passTo = PassMode(v)
	}
	if v, ok := cfg["timeout"]; ok {
		p.timeout = parseTimeout(v)
	}
	if v, ok := cfg["log_full_command"].(bool); ok {
		p.logFullCommand = v
	}
	if raw, ok := cfg["redact_args"].([]interface{}); ok {
		p.redactArgs = map[int]struct{}{}
		for _, v := range raw {
			if idx, ok := toInt(v); ok {
				p.redactArgs[idx] = struct{}{}
			}
		}
	}
	if raw, ok := cfg["redact_patterns"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				p.redactPatterns = append(p.redactPatterns, s)
			}
		}
	}

	return p, nil
}

// Call runs the configured command, optionally appending or piping the
// rendered payload, and returns its parsed stdout.
func (p *Process) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	args := append([]string{}, p.command...)
	var stdin string
	if payload != nil {
		switch p.passTo {
		case PassStdin:
			stdin = toPayloadString(payload)
		default:
			args = append(args, toPayloadString(payload))
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	log.Debug().Strs("command", SanitizeForLogging(args, p)).Msg("process provider: running command")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	log.Debug().Dur("elapsed", elapsed).Strs("command", SanitizeForLogging(args, p)).Msg("process provider: command finished")

	if ctx.Err() != nil {
		return result.Make(false, nil, nil, []string{"timeout"}, map[string]interface{}{
			"timeout":   true,
			"exception": ctx.Err().Error(),
		}), nil
	}

	returnCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		returnCode = exitErr.ExitCode()
	} else if runErr != nil {
		return result.FromException(runErr), nil
	}

	data := parseStdout(stdout.String())
	notes := []string{}
	if returnCode != 0 {
		notes = append(notes, fmt.Sprintf("process exited with code %d", returnCode))
	}

	meta := map[string]interface{}{
		"stderr":      stderr.String(),
		"return_code": returnCode,
	}
	code := returnCode
	return result.Make(returnCode == 0, &code, data, notes, meta), nil
}

func parseStdout(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func parseCommand(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return strings.Fields(v), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("process: command entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("process: \"command\" must be a string or list of strings")
	}
}

func parseTimeout(v interface{}) time.Duration {
	switch t := v.(type) {
	case string:
		d, err := time.ParseDuration(t)
		if err == nil {
			return d
		}
		if secs, err := strconv.ParseFloat(t, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	case int:
		return time.Duration(t) * time.Second
	case float64:
		return time.Duration(t * float64(time.Second))
	}
	return 0
}

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

func toPayloadString(payload interface{}) string {
	if s, ok := payload.(string); ok {
		return s
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}
